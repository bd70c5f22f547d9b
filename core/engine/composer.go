package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PianoInstructor/logger"
	"PianoInstructor/model"
)

const (
	// LevelTempo 关卡速度，仅作为元数据（MIDI 导出时使用）
	LevelTempo = 120.0

	accuracyRoundCount = 5
	accuracyTail       = 2.0
	listenDuration     = 5.0
)

// SessionRecorder 会话记录的持久化接口，由外部实现
type SessionRecorder interface {
	RecordSession(ctx context.Context, song model.Song) error
}

// ComposerOption 配置 Composer
type ComposerOption func(*Composer)

// WithRecorder 设置会话持久化
func WithRecorder(r SessionRecorder) ComposerOption {
	return func(c *Composer) { c.recorder = r }
}

// WithNow 替换时间源
func WithNow(now func() time.Time) ComposerOption {
	return func(c *Composer) { c.now = now }
}

// Composer 关卡组装器：把多轮练习串成一个关卡，并维护最近会话列表
type Composer struct {
	gen      *Generator
	recorder SessionRecorder
	now      func() time.Time

	mu       sync.RWMutex
	sessions []model.Song                  // 最新的在前
	levels   map[string]model.PlaybackData // sessionID -> 关卡
}

// NewComposer 创建关卡组装器
func NewComposer(gen *Generator, opts ...ComposerOption) *Composer {
	c := &Composer{
		gen:    gen,
		now:    time.Now,
		levels: make(map[string]model.PlaybackData),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generator 返回底层生成器
func (c *Composer) Generator() *Generator {
	return c.gen
}

// FinalizeRound 将每个音符的 StartTime 改写为该轮的判定时间
// 播放与判定都以判定时间为准，下落提前量只交给渲染端
func FinalizeRound(r model.FallingChordRound) model.FallingChordRound {
	notes := make([]model.NoteEvent, len(r.Notes))
	for i, n := range r.Notes {
		notes[i] = model.NoteEvent{Pitch: n.Pitch, StartTime: r.TimeUntilImpact, Duration: n.Duration}
	}
	r.Notes = notes
	return r
}

// NextRound 生成并整理紧接 previousImpactTime 的一轮
func (c *Composer) NextRound(difficulty int, previousImpactTime float64) model.FallingChordRound {
	return FinalizeRound(c.gen.NextAccuracyRound(difficulty, previousImpactTime))
}

// AccuracyRounds 从 0 秒开始串联生成固定数量的轮次
func (c *Composer) AccuracyRounds(difficulty int) []model.FallingChordRound {
	rounds := make([]model.FallingChordRound, 0, accuracyRoundCount)
	last := 0.0
	for i := 0; i < accuracyRoundCount; i++ {
		r := c.NextRound(difficulty, last)
		rounds = append(rounds, r)
		last = r.TimeUntilImpact
	}
	return rounds
}

// Quiz 生成一道听音题
func (c *Composer) Quiz(difficulty int) model.QuizQuestion {
	return c.gen.Quiz(difficulty)
}

// GenerateLevel 生成一个关卡
func (c *Composer) GenerateLevel(mode model.GameMode, difficulty int) (model.PlaybackData, error) {
	switch mode {
	case model.ModeAccuracy:
		rounds := c.AccuracyRounds(difficulty)
		notes := make([]model.NoteEvent, 0, len(rounds)*4)
		for _, r := range rounds {
			notes = append(notes, r.Notes...)
		}
		total := accuracyTail
		if len(rounds) > 0 {
			total += rounds[len(rounds)-1].TimeUntilImpact
		}
		return model.PlaybackData{Tempo: LevelTempo, TotalDuration: total, Notes: notes}, nil
	case model.ModeListen:
		quiz := c.gen.Quiz(difficulty)
		return model.PlaybackData{Tempo: LevelTempo, TotalDuration: listenDuration, Notes: quiz.NotesToPlay}, nil
	default:
		return model.PlaybackData{}, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
}

// CreateGameLevel 生成关卡并创建会话记录，记录插入最近会话列表的最前面
func (c *Composer) CreateGameLevel(ctx context.Context, mode model.GameMode, difficulty int) (model.PlaybackData, model.Song, error) {
	level, err := c.GenerateLevel(mode, difficulty)
	if err != nil {
		return model.PlaybackData{}, model.Song{}, err
	}
	song := model.NewSong(mode, difficulty, level, c.now())

	c.mu.Lock()
	c.sessions = append([]model.Song{song}, c.sessions...)
	c.levels[song.ID] = level
	c.mu.Unlock()

	if c.recorder != nil {
		if err := c.recorder.RecordSession(ctx, song); err != nil {
			logger.Warn("持久化会话记录失败",
				logger.String("sessionId", song.ID),
				logger.ErrorField(err))
		}
	}

	logger.Info("level created",
		logger.String("sessionId", song.ID),
		logger.String("mode", string(mode)),
		logger.Int("difficulty", difficulty),
		logger.Int("notes", len(level.Notes)),
		logger.Float64("totalDuration", level.TotalDuration))

	return level, song, nil
}

// RecentSessions 返回最近会话列表的副本（最新的在前）
func (c *Composer) RecentSessions() []model.Song {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Song, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Level 返回某个会话对应的关卡
func (c *Composer) Level(sessionID string) (model.PlaybackData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	level, ok := c.levels[sessionID]
	return level, ok
}

// SetSessionScore 游戏结束后回写会话分数
func (c *Composer) SetSessionScore(sessionID string, score int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.sessions {
		if c.sessions[i].ID == sessionID {
			c.sessions[i].Score = score
			return true
		}
	}
	return false
}
