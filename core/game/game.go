// Package game 实现精准模式与听音模式的实时状态机
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"PianoInstructor/core/engine"
	"PianoInstructor/core/timeline"
	"PianoInstructor/logger"
	"PianoInstructor/model"
)

var (
	// ErrGameEnded 游戏已结束
	ErrGameEnded = errors.New("game already ended")
	// ErrAlreadyStarted 游戏已经开始
	ErrAlreadyStarted = errors.New("game already started")
)

const (
	// PointsPerHit 每次答对的得分
	PointsPerHit = 10

	defaultTickInterval = 50 * time.Millisecond
)

// AudioPlayer 播放单个音符，StartTime 为相对"现在"的偏移，通常为 0
type AudioPlayer interface {
	Play(note model.NoteEvent)
}

// AudioPlayerFunc 函数形式的 AudioPlayer
type AudioPlayerFunc func(note model.NoteEvent)

// Play 实现 AudioPlayer
func (f AudioPlayerFunc) Play(note model.NoteEvent) { f(note) }

// ScoreSaver 游戏结束时保存分数
type ScoreSaver interface {
	SaveScore(ctx context.Context, player string, score int, mode model.GameMode, difficulty int) error
}

// Sink 接收游戏事件
type Sink interface {
	Emit(e Event)
}

// SinkFunc 函数形式的 Sink
type SinkFunc func(e Event)

// Emit 实现 Sink
func (f SinkFunc) Emit(e Event) { f(e) }

// RoundSource 精准模式的轮次来源
type RoundSource interface {
	AccuracyRounds(difficulty int) []model.FallingChordRound
	NextRound(difficulty int, previousImpactTime float64) model.FallingChordRound
}

// QuizSource 听音模式的题目来源
type QuizSource interface {
	Quiz(difficulty int) model.QuizQuestion
}

// Config 游戏会话配置
type Config struct {
	Difficulty int
	Player     string

	Scheduler timeline.Scheduler // 必填
	Audio     AudioPlayer
	Sink      Sink
	Scores    ScoreSaver
	Random    engine.Random // 运行时候选项的随机源

	TickInterval time.Duration
	// Strict 为 true 时内部状态不一致直接 panic，否则记录日志并忽略
	Strict bool
}

// Game 两种模式的公共接口
type Game interface {
	Start() error
	Answer(option string) (correct, accepted bool)
	Quit(ctx context.Context) int
	Score() int
	Mode() model.GameMode
	Ended() bool
}

// Replayer 支持重播当前题目的游戏
type Replayer interface {
	Replay() bool
}

// base 两种模式共享的临界区、定时任务与协作者
type base struct {
	mu      sync.Mutex
	cfg     Config
	mode    model.GameMode
	pending map[timeline.Handle]struct{}
	score   int
	ended   bool
}

func (b *base) init(mode model.GameMode, cfg Config) {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Random == nil {
		cfg.Random = engine.NewRandom(uint64(time.Now().UnixNano()))
	}
	b.cfg = cfg
	b.mode = mode
	b.pending = make(map[timeline.Handle]struct{})
}

// scheduleLocked 调度一次性任务；回调在临界区内执行，任务被取消后不再生效
func (b *base) scheduleLocked(d time.Duration, fn func()) timeline.Handle {
	var h timeline.Handle
	h = b.cfg.Scheduler.Schedule(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.pending[h]; !ok {
			return
		}
		delete(b.pending, h)
		fn()
	})
	if h != 0 {
		b.pending[h] = struct{}{}
	}
	return h
}

// everyLocked 调度周期任务
func (b *base) everyLocked(d time.Duration, fn func()) timeline.Handle {
	var h timeline.Handle
	h = b.cfg.Scheduler.Every(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.pending[h]; !ok {
			return
		}
		fn()
	})
	if h != 0 {
		b.pending[h] = struct{}{}
	}
	return h
}

func (b *base) cancelAllLocked() {
	for h := range b.pending {
		b.cfg.Scheduler.Cancel(h)
	}
	b.pending = make(map[timeline.Handle]struct{})
}

func (b *base) emitLocked(e Event) {
	if b.cfg.Sink != nil {
		b.cfg.Sink.Emit(e)
	}
}

func (b *base) playLocked(note model.NoteEvent) {
	if b.cfg.Audio != nil {
		b.cfg.Audio.Play(note)
	}
}

func (b *base) addScoreLocked() {
	b.score += PointsPerHit
	b.emitLocked(Event{Type: EventScoreUpdated, Score: b.score})
}

func (b *base) elapsed(since time.Time) float64 {
	return b.cfg.Scheduler.Now().Sub(since).Seconds()
}

// violation 内部状态不一致
func (b *base) violation(msg string, index int) {
	if b.cfg.Strict {
		panic(msg)
	}
	logger.Error("游戏状态异常，忽略本次操作",
		logger.String("reason", msg),
		logger.String("mode", string(b.mode)),
		logger.Int("index", index))
}

// quit 结束游戏：取消全部定时任务，发出最终分数并在临界区外保存
func (b *base) quit(ctx context.Context, onEnd func()) int {
	b.mu.Lock()
	if b.ended {
		score := b.score
		b.mu.Unlock()
		return score
	}
	b.ended = true
	b.cancelAllLocked()
	if onEnd != nil {
		onEnd()
	}
	score := b.score
	b.emitLocked(Event{Type: EventFinalScore, Score: score})
	b.mu.Unlock()

	if b.cfg.Scores != nil {
		if err := b.cfg.Scores.SaveScore(ctx, b.cfg.Player, score, b.mode, b.cfg.Difficulty); err != nil {
			logger.Warn("保存分数失败",
				logger.String("player", b.cfg.Player),
				logger.String("mode", string(b.mode)),
				logger.Int("difficulty", b.cfg.Difficulty),
				logger.ErrorField(err))
		}
	}

	logger.Info("game ended",
		logger.String("player", b.cfg.Player),
		logger.String("mode", string(b.mode)),
		logger.Int("difficulty", b.cfg.Difficulty),
		logger.Int("score", score))
	return score
}

// Score 当前分数
func (b *base) Score() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.score
}

// Mode 游戏模式
func (b *base) Mode() model.GameMode {
	return b.mode
}

// Ended 是否已结束
func (b *base) Ended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ended
}
