package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"PianoInstructor/cache"
	"PianoInstructor/config"
	"PianoInstructor/core/utils"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		// 连接Redis
		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// 测试Redis基本操作
		fmt.Println("开始测试Redis基本操作...")
		if err := cache.CheckRedis(ctx); err != nil {
			log.Fatalf("Redis操作测试失败: %v", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisListScores {
			players, err := cache.NewScoreCache().Players(ctx, redisMode, redisDifficulty)
			if err != nil {
				log.Fatalf("读取最高分失败: %v", err)
			}
			fmt.Printf("\n%s 难度 %d 的最高分:\n", redisMode, redisDifficulty)
			for _, name := range utils.SortedKeys(players) {
				fmt.Printf("  %-20s %d\n", name, players[name])
			}
		}

		// 关闭连接
		if err := cache.CloseRedis(); err != nil {
			log.Printf("关闭Redis连接时发生错误: %v", err)
		}
		fmt.Println("Redis测试完成，连接已关闭。")
	},
}

var (
	redisListScores bool
	redisMode       string
	redisDifficulty int
)

func init() {
	rootCmd.AddCommand(redisCmd)

	redisCmd.Flags().BoolVarP(&redisListScores, "scores", "s", false, "列出某个模式与难度下所有玩家的最高分")
	redisCmd.Flags().StringVarP(&redisMode, "mode", "m", "listen", "游戏模式")
	redisCmd.Flags().IntVarP(&redisDifficulty, "difficulty", "d", 1, "难度")
}
