package midi

import (
	"bytes"
	"testing"

	"PianoInstructor/core/engine"
	"PianoInstructor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

type noteOn struct {
	key     uint8
	atMicro int64
}

func readNoteOns(t *testing.T, data []byte) (*smf.SMF, []noteOn) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)

	var ons []noteOn
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
				ons = append(ons, noteOn{key: key, atMicro: s.TimeAt(abs)})
			}
		}
	}
	return s, ons
}

func TestWriteLevelRoundTrip(t *testing.T) {
	level := model.PlaybackData{
		Tempo:         120,
		TotalDuration: 7,
		Notes: []model.NoteEvent{
			{Pitch: 48, StartTime: 2.5, Duration: 0.5},
			{Pitch: 52, StartTime: 2.5, Duration: 0.5},
			{Pitch: 55, StartTime: 5.0, Duration: 0.5},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLevel(&buf, level, "Test Your Accuracy (Lvl 10)"))

	s, ons := readNoteOns(t, buf.Bytes())
	assert.Equal(t, smf.MetricTicks(TicksPerQuarter), s.TimeFormat)
	require.Len(t, ons, 3)
	assert.Equal(t, uint8(48), ons[0].key)
	assert.InDelta(t, 2_500_000, ons[0].atMicro, 1000)
	assert.InDelta(t, 2_500_000, ons[1].atMicro, 1000)
	assert.InDelta(t, 5_000_000, ons[2].atMicro, 1000)
}

func TestWriteGeneratedLevel(t *testing.T) {
	c := engine.NewComposer(engine.NewGenerator(engine.NewRandom(6)))
	level, err := c.GenerateLevel(model.ModeAccuracy, 10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLevel(&buf, level, "level"))
	_, ons := readNoteOns(t, buf.Bytes())
	assert.Len(t, ons, len(level.Notes))
}

func TestBuildRejectsInvalidLevels(t *testing.T) {
	_, err := Build(model.PlaybackData{Tempo: 0}, "x")
	assert.Error(t, err)

	_, err = Build(model.PlaybackData{Tempo: 120, Notes: []model.NoteEvent{{Pitch: 200}}}, "x")
	assert.Error(t, err)

	_, err = Build(model.PlaybackData{Tempo: 120, Notes: []model.NoteEvent{{Pitch: 60, StartTime: -1}}}, "x")
	assert.Error(t, err)
}
