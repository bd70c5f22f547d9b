package game

import "PianoInstructor/model"

// EventType 游戏事件类型
type EventType string

const (
	EventRoundStarted     EventType = "round_started"     // 精准模式：新一轮开始下落
	EventRoundResolved    EventType = "round_resolved"    // 精准模式：本轮已判定
	EventScoreUpdated     EventType = "score_updated"     // 分数变化
	EventQuestion         EventType = "question"          // 听音模式：新题目
	EventQuestionResolved EventType = "question_resolved" // 听音模式：本题已判定
	EventFinalScore       EventType = "final_score"       // 游戏结束
)

// Event 游戏事件，按类型使用其中的部分字段
type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
	Score int       `json:"score"`

	Notes           []model.NoteEvent `json:"notes,omitempty"`
	Options         []string          `json:"options,omitempty"`
	TimeUntilImpact float64           `json:"timeUntilImpact,omitempty"`
	FallDuration    float64           `json:"fallDuration,omitempty"`

	Answer        string `json:"answer,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	Correct       bool   `json:"correct"`
	Missed        bool   `json:"missed,omitempty"`
}

// State 状态机所处的阶段
// 精准模式使用 running，听音模式使用 awaiting
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateAwaiting State = "awaiting"
	StateResolved State = "resolved"
	StateEnded    State = "ended"
)
