package cmd

import (
	"fmt"
	"os"

	"PianoInstructor/config"
	"PianoInstructor/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "piano",
	Short: "PianoInstructor 听音与和弦精准练习",
	Long:  `生成听音辨识与下落和弦练习关卡，提供实时游戏服务与终端练习模式。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 不带子命令时直接启动服务
		return serverCmd.RunE(cmd, args)
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志
func setup(console bool) *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
		Console:    console,
	})
	return cfg
}
