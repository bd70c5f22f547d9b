package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PianoInstructor/cache"
	"PianoInstructor/core/engine"
	"PianoInstructor/core/score"
	"PianoInstructor/db"
	"PianoInstructor/logger"
	"PianoInstructor/repository"
	"PianoInstructor/server"
	"PianoInstructor/storage"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动游戏服务器",
	Long:  `启动 HTTP + WebSocket 游戏服务。MySQL、Redis、MinIO 不可用时退回内存实现。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(false)
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		deps := server.Deps{Config: cfg}

		// ========== MySQL ==========
		var board score.Leaderboard
		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Warn("数据库不可用，会话与排行榜仅保存在内存", logger.ErrorField(err))
		} else {
			defer db.CloseGormDB()
			if err := db.AutoMigrateModels(); err != nil {
				logger.Warn("数据库迁移失败", logger.ErrorField(err))
			}
			deps.Sessions = repository.NewGormSessionRepository(db.GormDB)
			board = repository.NewGormLeaderboardRepository(db.GormDB)
		}

		// ========== Redis ==========
		var highs score.HighScores
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis 不可用，最高分仅保存在内存", logger.ErrorField(err))
			highs = score.NewMemoryHighScores()
		} else {
			defer cache.CloseRedis()
			highs = cache.NewScoreCache()
		}

		// ========== MinIO ==========
		archive, err := storage.NewArchive(ctx, cfg)
		if err != nil {
			logger.Warn("会话归档不可用", logger.ErrorField(err))
		} else if archive != nil {
			deps.Archive = archive
		}

		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		deps.Random = engine.NewRandom(seed)

		var opts []engine.ComposerOption
		if deps.Sessions != nil {
			opts = append(opts, engine.WithRecorder(repository.SessionRecorder{Repo: deps.Sessions}))
		}
		deps.Composer = engine.NewComposer(engine.NewGenerator(deps.Random), opts...)
		deps.Scores = score.NewManager(highs, board)

		return server.New(deps).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
