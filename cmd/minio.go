package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"PianoInstructor/config"
	"PianoInstructor/storage"

	"github.com/spf13/cobra"
)

var minioSession string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO会话归档检查",
	Long:  `连接MinIO并确认存储桶存在，指定会话ID时输出该会话的归档摘要。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		archive, err := storage.NewArchive(ctx, cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		if archive == nil {
			log.Fatal("未配置 MINIO_ENDPOINT")
		}
		fmt.Println("MinIO连接成功！")

		if minioSession == "" {
			return
		}

		summary, err := archive.LoadSession(ctx, minioSession)
		if err != nil {
			log.Fatalf("读取会话失败: %v", err)
		}
		if summary == nil {
			log.Fatalf("会话 %s 未归档", minioSession)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			log.Fatalf("输出会话失败: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioSession, "session", "s", "", "要查看的会话ID")

	minioCmd.Example = `  # 检查连接与存储桶
  piano minio

  # 查看某个会话的归档
  piano minio -s 1b4e28ba-2fa1-11d2-883f-0016d3cca427`
}
