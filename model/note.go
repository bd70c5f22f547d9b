package model

// NoteEvent 一个需要播放/渲染的音符事件
// StartTime 的时间原点取决于上下文：关卡内为绝对时间，"立即播放"时为 0
type NoteEvent struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"startTime"` // 秒
	Duration  float64 `json:"duration"`  // 秒，生成器不做校验
}

// QuizQuestion 听音辨识题
type QuizQuestion struct {
	NotesToPlay   []NoteEvent `json:"notesToPlay"`
	CorrectAnswer string      `json:"correctAnswer"`
	Options       []string    `json:"options"` // 4 个互不相同的候选项，升序
}

// FallingChordRound 精准模式中的一轮下落和弦
type FallingChordRound struct {
	Notes           []NoteEvent `json:"notes"`
	ChordName       string      `json:"chordName"`
	TimeUntilImpact float64     `json:"timeUntilImpact"` // 距关卡开始的判定时间（秒）
	FallDuration    float64     `json:"fallDuration"`    // 下落提前量，仅供渲染使用
}

// PlaybackData 交给播放端/UI 的关卡数据
type PlaybackData struct {
	Tempo         float64     `json:"tempo"`
	TotalDuration float64     `json:"totalDuration"`
	Notes         []NoteEvent `json:"notes"`
}
