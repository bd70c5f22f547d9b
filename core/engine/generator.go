package engine

import (
	"math"

	"PianoInstructor/core/theory"
	"PianoInstructor/model"
)

const (
	chordNoteDuration  = 2.0
	singleNoteDuration = 1.0
	roundNoteDuration  = 0.5
	// 听音模式中的和弦题固定按中等难度出题
	quizChordDifficulty = 5
)

// Ranges 生成器使用的音高范围（闭区间）
type Ranges struct {
	ChordRootLow  int
	ChordRootHigh int
	NoteLow       int
	NoteHigh      int
}

// DefaultRanges 默认范围：和弦根音 48-60，单音 48-72
func DefaultRanges() Ranges {
	return Ranges{ChordRootLow: 48, ChordRootHigh: 60, NoteLow: 48, NoteHigh: 72}
}

// Generator 练习生成器，除随机源外无内部状态
type Generator struct {
	rnd    Random
	ranges Ranges
}

// NewGenerator 使用默认音高范围创建生成器
func NewGenerator(rnd Random) *Generator {
	return NewGeneratorWithRanges(rnd, DefaultRanges())
}

// NewGeneratorWithRanges 使用自定义音高范围创建生成器
func NewGeneratorWithRanges(rnd Random, ranges Ranges) *Generator {
	return &Generator{rnd: rnd, ranges: ranges}
}

// Spacing 两轮判定时间之间的最小间隔
func Spacing(difficulty int) float64 {
	return math.Max(2.5, 6.5-float64(difficulty)*0.4)
}

// FallDuration 音符开始下落到判定点的提前量
func FallDuration(difficulty int) float64 {
	return math.Max(2.5, 5.3-float64(difficulty)*0.28)
}

// ChordNotes 构建从 0 秒开始的和弦音符
func ChordNotes(root int, q theory.Quality) []model.NoteEvent {
	intervals := q.Intervals()
	notes := make([]model.NoteEvent, 0, len(intervals))
	for _, iv := range intervals {
		notes = append(notes, model.NoteEvent{Pitch: root + iv, StartTime: 0, Duration: chordNoteDuration})
	}
	return notes
}

// ChordFromRoot 以指定根音和性质出一道和弦题，干扰项取自同一根音范围和该难度允许的性质
func (g *Generator) ChordFromRoot(root int, q theory.Quality, difficulty int) model.QuizQuestion {
	qualities := theory.QualitiesFor(difficulty)
	name := theory.ChordName(root, q)
	options := buildOptions(g.rnd, name, func() string {
		return theory.ChordName(g.rnd.IntRange(g.ranges.ChordRootLow, g.ranges.ChordRootHigh), Pick(g.rnd, qualities))
	}, chordUniverse(qualities))

	return model.QuizQuestion{
		NotesToPlay:   ChordNotes(root, q),
		CorrectAnswer: name,
		Options:       options,
	}
}

// RandomChord 随机和弦题，同时用于听音模式和精准模式
func (g *Generator) RandomChord(difficulty int) model.QuizQuestion {
	root := g.rnd.IntRange(g.ranges.ChordRootLow, g.ranges.ChordRootHigh)
	q := Pick(g.rnd, theory.QualitiesFor(difficulty))
	return g.ChordFromRoot(root, q, difficulty)
}

// SingleNoteQuiz 单音辨识题
func (g *Generator) SingleNoteQuiz() model.QuizQuestion {
	pitch := g.rnd.IntRange(g.ranges.NoteLow, g.ranges.NoteHigh)
	name := theory.NoteName(pitch)
	options := buildOptions(g.rnd, name, func() string {
		return theory.NoteName(g.rnd.IntRange(g.ranges.NoteLow, g.ranges.NoteHigh))
	}, theory.NoteNames())

	return model.QuizQuestion{
		NotesToPlay:   []model.NoteEvent{{Pitch: pitch, StartTime: 0, Duration: singleNoteDuration}},
		CorrectAnswer: name,
		Options:       options,
	}
}

// Quiz 按难度选择题型：<=3 单音，>=8 和弦，其余随机各半
func (g *Generator) Quiz(difficulty int) model.QuizQuestion {
	switch {
	case difficulty <= 3:
		return g.SingleNoteQuiz()
	case difficulty >= 8:
		return g.RandomChord(quizChordDifficulty)
	case g.rnd.Index(2) == 0:
		return g.SingleNoteQuiz()
	default:
		return g.RandomChord(quizChordDifficulty)
	}
}

// NextAccuracyRound 生成紧接上一轮的一轮下落和弦
// 音符的 StartTime 此时为 impact - fallDuration，交给运行时之前需经 FinalizeRound 处理
func (g *Generator) NextAccuracyRound(difficulty int, previousImpactTime float64) model.FallingChordRound {
	impact := previousImpactTime + Spacing(difficulty)
	fall := FallDuration(difficulty)
	chord := g.RandomChord(difficulty)

	notes := make([]model.NoteEvent, 0, len(chord.NotesToPlay))
	for _, n := range chord.NotesToPlay {
		notes = append(notes, model.NoteEvent{
			Pitch:     n.Pitch,
			StartTime: impact - fall,
			Duration:  roundNoteDuration,
		})
	}

	return model.FallingChordRound{
		Notes:           notes,
		ChordName:       chord.CorrectAnswer,
		TimeUntilImpact: impact,
		FallDuration:    fall,
	}
}
