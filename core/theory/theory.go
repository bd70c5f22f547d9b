// Package theory 提供音高与和弦的命名规则
package theory

import (
	"fmt"
	"math"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Quality 和弦性质
type Quality string

const (
	Major     Quality = "Maj"
	Minor     Quality = "Min"
	Dominant7 Quality = "7"
)

// Intervals 返回相对根音的半音间隔
func (q Quality) Intervals() []int {
	switch q {
	case Minor:
		return []int{0, 3, 7}
	case Dominant7:
		return []int{0, 4, 7, 10}
	default:
		return []int{0, 4, 7}
	}
}

// QualitiesFor 返回某难度下允许出现的和弦性质
func QualitiesFor(difficulty int) []Quality {
	if difficulty > 5 {
		return []Quality{Major, Minor, Dominant7}
	}
	return []Quality{Major, Minor}
}

// NoteName 返回音高对应的音名，统一使用升号记法，负数音高同样适用
func NoteName(pitch int) string {
	return noteNames[((pitch%12)+12)%12]
}

// NoteNames 返回十二个音名（从 C 开始）
func NoteNames() []string {
	names := make([]string, len(noteNames))
	copy(names, noteNames[:])
	return names
}

// ChordName 格式化为 "<根音> <性质>"
func ChordName(root int, q Quality) string {
	return fmt.Sprintf("%s %s", NoteName(root), q)
}

// Frequency 返回十二平均律下的频率（A4 = 440Hz）
func Frequency(pitch int) float64 {
	return 440.0 * math.Pow(2.0, float64(pitch-69)/12.0)
}
