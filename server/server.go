package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"PianoInstructor/config"
	"PianoInstructor/core/engine"
	"PianoInstructor/core/game"
	"PianoInstructor/core/score"
	"PianoInstructor/core/timeline"
	"PianoInstructor/logger"
	"PianoInstructor/model"
	"PianoInstructor/repository"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SessionArchiver 游戏结束后归档会话摘要
type SessionArchiver interface {
	ArchiveSession(ctx context.Context, summary model.SessionSummary) error
}

// Deps 服务依赖，可选项为 nil 时对应功能关闭
type Deps struct {
	Config   *config.Config
	Composer *engine.Composer
	Scores   *score.Manager
	Random   engine.Random

	Sessions repository.SessionRepository // 可选
	Archive  SessionArchiver              // 可选

	// NewScheduler 每局游戏一个调度器，默认使用 timeline.NewLoop
	NewScheduler func() timeline.Scheduler
}

// Server HTTP + WebSocket 游戏服务
type Server struct {
	deps     Deps
	registry *game.Registry
	router   *mux.Router

	done      chan struct{}
	closeOnce sync.Once
}

// New 创建服务并注册路由
func New(deps Deps) *Server {
	if deps.Config == nil {
		deps.Config = config.FromEnv()
	}
	if deps.Random == nil {
		deps.Random = engine.NewRandom(uint64(time.Now().UnixNano()))
	}
	if deps.NewScheduler == nil {
		deps.NewScheduler = func() timeline.Scheduler { return timeline.NewLoop() }
	}

	s := &Server{
		deps:     deps,
		registry: game.NewRegistry(),
		router:   mux.NewRouter(),
		done:     make(chan struct{}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// 关卡与会话
	r.HandleFunc("/api/levels", s.CreateLevelHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions", s.ListSessionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}/level", s.SessionLevelHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}/midi", s.SessionMidiHandler).Methods(http.MethodGet)

	// 分数
	r.HandleFunc("/api/scores/high", s.HighScoreHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard", s.LeaderboardHandler).Methods(http.MethodGet)

	// 实时游戏
	r.HandleFunc("/ws/play", s.PlayHandler).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"activeGames": s.registry.Count()})
	}).Methods(http.MethodGet)
}

// Handler 返回带 CORS 的根 handler
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.deps.Config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler(s.router)
}

// Registry 活跃游戏
func (s *Server) Registry() *game.Registry {
	return s.registry
}

// Run 启动服务，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.deps.Config.HTTPAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Close(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// Close 结束所有游戏并断开 WebSocket 连接
func (s *Server) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.registry.StopAll(ctx)
		close(s.done)
	})
}
