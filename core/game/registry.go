package game

import (
	"context"
	"sync"

	"PianoInstructor/logger"
)

// Registry 活跃游戏会话管理
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry 创建会话管理器
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register 注册会话，同 ID 的旧会话会被结束
func (r *Registry) Register(ctx context.Context, id string, g Game) {
	r.mu.Lock()
	old, exists := r.games[id]
	r.games[id] = g
	r.mu.Unlock()

	if exists && old != g {
		old.Quit(ctx)
	}
	logger.Info("game registered",
		logger.String("id", id),
		logger.String("mode", string(g.Mode())))
}

// Unregister 注销会话，不会结束游戏
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
}

// Get 获取会话
func (r *Registry) Get(id string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// Count 活跃会话数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// StopAll 结束并移除所有会话，服务关闭时调用
func (r *Registry) StopAll(ctx context.Context) int {
	r.mu.Lock()
	games := r.games
	r.games = make(map[string]Game)
	r.mu.Unlock()

	for _, g := range games {
		g.Quit(ctx)
	}
	if len(games) > 0 {
		logger.Info("stopped active games", logger.Int("count", len(games)))
	}
	return len(games)
}
