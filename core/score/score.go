// Package score 负责最高分记录与排行榜
package score

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PianoInstructor/logger"
	"PianoInstructor/model"
)

// DefaultTopLimit 排行榜默认条数
const DefaultTopLimit = 10

// Key 最高分的归属：玩家 + 模式 + 难度
type Key struct {
	Player     string
	Mode       model.GameMode
	Difficulty int
}

// String 返回 "Score_<mode>_<difficulty>"，不含玩家
func (k Key) String() string {
	return fmt.Sprintf("Score_%s_%d", k.Mode, k.Difficulty)
}

// HighScores 最高分存储，不存在的记录返回 0
type HighScores interface {
	Get(ctx context.Context, key Key) (int, error)
	Set(ctx context.Context, key Key, score int) error
}

// Leaderboard 排行榜存储
type Leaderboard interface {
	Create(ctx context.Context, entry *model.LeaderboardEntry) error
	Top(ctx context.Context, mode, difficulty string, limit int) ([]*model.LeaderboardEntry, error)
}

// Manager 分数管理：只有刷新最高分时才写入存储和排行榜
type Manager struct {
	highs HighScores
	board Leaderboard
	now   func() time.Time
}

// NewManager 创建分数管理器，board 可以为 nil
func NewManager(highs HighScores, board Leaderboard) *Manager {
	return &Manager{highs: highs, board: board, now: time.Now}
}

// SaveScore 保存分数；未超过当前最高分时不做任何写入
func (m *Manager) SaveScore(ctx context.Context, player string, score int, mode model.GameMode, difficulty int) error {
	key := Key{Player: player, Mode: mode, Difficulty: difficulty}
	current, err := m.highs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("读取最高分失败: %w", err)
	}
	if score <= current {
		return nil
	}
	if err := m.highs.Set(ctx, key, score); err != nil {
		return fmt.Errorf("写入最高分失败: %w", err)
	}

	if m.board != nil {
		entry := &model.LeaderboardEntry{
			Username:   player,
			Score:      score,
			Mode:       mode.Label(),
			Difficulty: model.DifficultyLabel(difficulty),
			Date:       m.now(),
		}
		// 排行榜写入失败不影响本地最高分
		if err := m.board.Create(ctx, entry); err != nil {
			logger.Warn("上传排行榜失败",
				logger.String("player", player),
				logger.Int("score", score),
				logger.ErrorField(err))
		}
	}

	logger.Info("new high score",
		logger.String("player", player),
		logger.String("key", key.String()),
		logger.Int("score", score))
	return nil
}

// HighScore 查询最高分
func (m *Manager) HighScore(ctx context.Context, player string, mode model.GameMode, difficulty int) (int, error) {
	return m.highs.Get(ctx, Key{Player: player, Mode: mode, Difficulty: difficulty})
}

// FetchTop 查询排行榜，出错时记录日志并返回空列表
func (m *Manager) FetchTop(ctx context.Context, mode model.GameMode, difficulty, limit int) []*model.LeaderboardEntry {
	if m.board == nil {
		return []*model.LeaderboardEntry{}
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	entries, err := m.board.Top(ctx, mode.Label(), model.DifficultyLabel(difficulty), limit)
	if err != nil {
		logger.Error("查询排行榜失败",
			logger.String("mode", string(mode)),
			logger.Int("difficulty", difficulty),
			logger.ErrorField(err))
		return []*model.LeaderboardEntry{}
	}
	if entries == nil {
		entries = []*model.LeaderboardEntry{}
	}
	return entries
}

// MemoryHighScores 内存最高分存储
type MemoryHighScores struct {
	mu     sync.RWMutex
	scores map[Key]int
}

// NewMemoryHighScores 创建内存存储
func NewMemoryHighScores() *MemoryHighScores {
	return &MemoryHighScores{scores: make(map[Key]int)}
}

// Get 实现 HighScores
func (s *MemoryHighScores) Get(_ context.Context, key Key) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[key], nil
}

// Set 实现 HighScores
func (s *MemoryHighScores) Set(_ context.Context, key Key, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[key] = score
	return nil
}
