// Package midi 把关卡导出为标准 MIDI 文件
package midi

import (
	"fmt"
	"io"
	"sort"
	"time"

	"PianoInstructor/model"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter 导出文件的时间精度
	TicksPerQuarter = 480

	channel  = 0
	velocity = 100
)

type noteEdge struct {
	tick uint32
	on   bool
	key  uint8
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// edges 展开成按时间排序的 note on/off，同一时刻先关后开
func edges(level model.PlaybackData, tf smf.MetricTicks) ([]noteEdge, error) {
	out := make([]noteEdge, 0, len(level.Notes)*2)
	for _, n := range level.Notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, fmt.Errorf("pitch %d out of MIDI range", n.Pitch)
		}
		if n.StartTime < 0 {
			return nil, fmt.Errorf("negative start time %.3f", n.StartTime)
		}
		start := tf.Ticks(level.Tempo, seconds(n.StartTime))
		length := tf.Ticks(level.Tempo, seconds(n.Duration))
		if length == 0 {
			length = 1
		}
		key := uint8(n.Pitch)
		out = append(out,
			noteEdge{tick: start, on: true, key: key},
			noteEdge{tick: start + length, on: false, key: key})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].tick != out[j].tick {
			return out[i].tick < out[j].tick
		}
		return !out[i].on && out[j].on
	})
	return out, nil
}

// Build 生成单轨 SMF，速度取关卡的 Tempo
func Build(level model.PlaybackData, title string) (*smf.SMF, error) {
	if level.Tempo <= 0 {
		return nil, fmt.Errorf("invalid tempo %.2f", level.Tempo)
	}
	tf := smf.MetricTicks(TicksPerQuarter)
	evs, err := edges(level, tf)
	if err != nil {
		return nil, err
	}

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(title))
	tr.Add(0, smf.MetaTempo(level.Tempo))

	var last uint32
	for _, e := range evs {
		delta := e.tick - last
		last = e.tick
		if e.on {
			tr.Add(delta, midi.NoteOn(channel, e.key, velocity))
		} else {
			tr.Add(delta, midi.NoteOff(channel, e.key))
		}
	}

	end := tf.Ticks(level.Tempo, seconds(level.TotalDuration))
	var tail uint32
	if end > last {
		tail = end - last
	}
	tr.Close(tail)

	s := smf.New()
	s.TimeFormat = tf
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("添加 MIDI 轨道失败: %w", err)
	}
	return s, nil
}

// WriteLevel 把关卡写成 MIDI 文件
func WriteLevel(w io.Writer, level model.PlaybackData, title string) error {
	s, err := Build(level, title)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("写入 MIDI 文件失败: %w", err)
	}
	return nil
}
