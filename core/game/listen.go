package game

import (
	"context"
	"time"

	"PianoInstructor/model"
)

const (
	playbackDelay = 500 * time.Millisecond
	nextDelay     = 1500 * time.Millisecond
)

// ListenSnapshot 听音模式的状态快照
type ListenSnapshot struct {
	State    State              `json:"state"`
	Asked    int                `json:"asked"`
	Score    int                `json:"score"`
	Question model.QuizQuestion `json:"question"`
}

// ListenGame 听音辨识模式
// AwaitingAnswer(q) -> Resolved(q) -> AwaitingAnswer(next) ... 直到退出
type ListenGame struct {
	base
	source QuizSource

	state    State
	question model.QuizQuestion
	asked    int
}

// NewListenGame 创建听音模式会话
func NewListenGame(source QuizSource, cfg Config) *ListenGame {
	g := &ListenGame{source: source, state: StateIdle}
	g.init(model.ModeListen, cfg)
	return g
}

// Start 出第一道题
func (g *ListenGame) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.ended:
		return ErrGameEnded
	case g.state != StateIdle:
		return ErrAlreadyStarted
	}
	g.nextQuestionLocked()
	return nil
}

func (g *ListenGame) nextQuestionLocked() {
	g.question = g.source.Quiz(g.cfg.Difficulty)
	g.state = StateAwaiting
	g.emitLocked(Event{
		Type:    EventQuestion,
		Index:   g.asked,
		Score:   g.score,
		Notes:   g.question.NotesToPlay,
		Options: g.question.Options,
	})
	g.asked++
	g.scheduleLocked(playbackDelay, g.playQuestionLocked)
}

// playQuestionLocked StartTime 为 0 的音符立即播放，其余按偏移调度
func (g *ListenGame) playQuestionLocked() {
	for _, n := range g.question.NotesToPlay {
		if n.StartTime <= 0 {
			g.playLocked(n)
			continue
		}
		note := n
		note.StartTime = 0
		g.scheduleLocked(time.Duration(n.StartTime*float64(time.Second)), func() {
			g.playLocked(note)
		})
	}
}

// Replay 重播当前题目，不改变状态
func (g *ListenGame) Replay() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended || g.state != StateAwaiting {
		return false
	}
	g.playQuestionLocked()
	return true
}

// Answer 提交答案；仅在等待作答时生效
func (g *ListenGame) Answer(option string) (correct, accepted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended || g.state != StateAwaiting {
		return false, false
	}
	correct = option == g.question.CorrectAnswer
	g.state = StateResolved
	if correct {
		g.addScoreLocked()
	}
	g.emitLocked(Event{
		Type:          EventQuestionResolved,
		Index:         g.asked - 1,
		Score:         g.score,
		Answer:        option,
		CorrectAnswer: g.question.CorrectAnswer,
		Correct:       correct,
	})
	g.scheduleLocked(nextDelay, func() {
		if g.state != StateResolved {
			g.violation("next question while not resolved", g.asked-1)
			return
		}
		g.nextQuestionLocked()
	})
	return correct, true
}

// Quit 结束游戏并保存分数，可重复调用
func (g *ListenGame) Quit(ctx context.Context) int {
	return g.quit(ctx, func() { g.state = StateEnded })
}

// Snapshot 返回当前状态
func (g *ListenGame) Snapshot() ListenSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ListenSnapshot{State: g.state, Asked: g.asked, Score: g.score, Question: g.question}
}
