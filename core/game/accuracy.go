package game

import (
	"context"
	"time"

	"PianoInstructor/core/engine"
	"PianoInstructor/model"
)

const (
	// 超过判定时间 0.1 秒仍未作答视为未命中
	missGrace      = 0.1
	advanceDelay   = time.Second
	feedbackLength = 0.5
)

// AccuracySnapshot 精准模式的状态快照
type AccuracySnapshot struct {
	State    State                   `json:"state"`
	Index    int                     `json:"index"`
	Score    int                     `json:"score"`
	Options  []string                `json:"options"`
	Round    model.FallingChordRound `json:"round"`
	Buffered int                     `json:"buffered"`
	Elapsed  float64                 `json:"elapsed"`
}

// AccuracyGame 下落和弦精准模式
// Idle -> Running(i) -> Resolved(i) -> Running(i+1) ... -> Ended
type AccuracyGame struct {
	base
	source RoundSource

	state     State
	rounds    []model.FallingChordRound
	index     int
	options   []string
	startedAt time.Time
}

// NewAccuracyGame 创建精准模式会话
func NewAccuracyGame(source RoundSource, cfg Config) *AccuracyGame {
	g := &AccuracyGame{source: source, state: StateIdle}
	g.init(model.ModeAccuracy, cfg)
	return g
}

// Start 生成初始轮次并开始计时
func (g *AccuracyGame) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.ended:
		return ErrGameEnded
	case g.state != StateIdle:
		return ErrAlreadyStarted
	}

	g.rounds = g.source.AccuracyRounds(g.cfg.Difficulty)
	if len(g.rounds) == 0 {
		g.violation("round source returned no rounds", 0)
		return nil
	}
	g.startedAt = g.cfg.Scheduler.Now()
	g.enterRunningLocked(0)
	g.everyLocked(g.cfg.TickInterval, g.tickLocked)
	return nil
}

// enterRunningLocked 进入 Running(i)；进入最后一个缓冲轮次时追加一轮，保证始终多备一轮
func (g *AccuracyGame) enterRunningLocked(i int) {
	g.index = i
	g.state = StateRunning
	r := g.rounds[i]
	g.options = engine.RoundOptions(g.cfg.Random, r.ChordName)

	g.emitLocked(Event{
		Type:            EventRoundStarted,
		Index:           i,
		Score:           g.score,
		Notes:           r.Notes,
		Options:         g.options,
		TimeUntilImpact: r.TimeUntilImpact,
		FallDuration:    r.FallDuration,
	})

	if i == len(g.rounds)-1 {
		g.rounds = append(g.rounds, g.source.NextRound(g.cfg.Difficulty, r.TimeUntilImpact))
	}
}

func (g *AccuracyGame) tickLocked() {
	if g.state != StateRunning {
		return
	}
	if g.elapsed(g.startedAt) > g.rounds[g.index].TimeUntilImpact+missGrace {
		g.resolveLocked("", false, true)
	}
}

// resolveLocked Running(i) -> Resolved(i)：播放和弦，1 秒后进入下一轮
func (g *AccuracyGame) resolveLocked(answer string, correct, missed bool) {
	r := g.rounds[g.index]
	g.state = StateResolved
	if correct {
		g.addScoreLocked()
	}
	for _, n := range r.Notes {
		g.playLocked(model.NoteEvent{Pitch: n.Pitch, StartTime: 0, Duration: feedbackLength})
	}
	g.emitLocked(Event{
		Type:          EventRoundResolved,
		Index:         g.index,
		Score:         g.score,
		Answer:        answer,
		CorrectAnswer: r.ChordName,
		Correct:       correct,
		Missed:        missed,
	})
	g.scheduleLocked(advanceDelay, g.advanceLocked)
}

func (g *AccuracyGame) advanceLocked() {
	if g.state != StateResolved {
		g.violation("advance while round is not resolved", g.index)
		return
	}
	next := g.index + 1
	if next >= len(g.rounds) {
		g.violation("advance past the round buffer", g.index)
		return
	}
	g.enterRunningLocked(next)
}

// Answer 提交答案；仅在 Running 状态下生效
func (g *AccuracyGame) Answer(option string) (correct, accepted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended || g.state != StateRunning {
		return false, false
	}
	correct = option == g.rounds[g.index].ChordName
	g.resolveLocked(option, correct, false)
	return correct, true
}

// Quit 结束游戏并保存分数，可重复调用
func (g *AccuracyGame) Quit(ctx context.Context) int {
	return g.quit(ctx, func() { g.state = StateEnded })
}

// Snapshot 返回当前状态
func (g *AccuracyGame) Snapshot() AccuracySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := AccuracySnapshot{
		State:    g.state,
		Index:    g.index,
		Score:    g.score,
		Options:  append([]string(nil), g.options...),
		Buffered: len(g.rounds),
	}
	if g.index < len(g.rounds) {
		s.Round = g.rounds[g.index]
	}
	if !g.startedAt.IsZero() {
		s.Elapsed = g.elapsed(g.startedAt)
	}
	return s
}
