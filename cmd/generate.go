package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"PianoInstructor/core/engine"
	"PianoInstructor/midi"
	"PianoInstructor/model"

	"github.com/spf13/cobra"
)

var (
	generateMode       string
	generateDifficulty int
	generateSeed       uint64
	generateMidi       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成一个练习关卡",
	Long:  `按模式与难度生成关卡并以 JSON 输出，可选导出为 MIDI 文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := model.ParseGameMode(generateMode)
		if err != nil {
			return err
		}
		if generateDifficulty < 1 {
			return fmt.Errorf("difficulty must be >= 1, got %d", generateDifficulty)
		}

		seed := generateSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		composer := engine.NewComposer(engine.NewGenerator(engine.NewRandom(seed)))
		level, song, err := composer.CreateGameLevel(cmd.Context(), mode, generateDifficulty)
		if err != nil {
			return err
		}

		if generateMidi != "" {
			f, err := os.Create(generateMidi)
			if err != nil {
				return fmt.Errorf("创建 MIDI 文件失败: %w", err)
			}
			defer f.Close()
			if err := midi.WriteLevel(f, level, song.Title); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "MIDI 已写入 %s\n", generateMidi)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"session": song,
			"level":   level,
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", string(model.ModeAccuracy), "游戏模式: listen | accuracy")
	generateCmd.Flags().IntVarP(&generateDifficulty, "difficulty", "d", model.DifficultyEasy, "难度 (>= 1)")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "随机种子，0 表示使用当前时间")
	generateCmd.Flags().StringVar(&generateMidi, "midi", "", "导出 MIDI 文件路径")

	generateCmd.Example = `  # 生成困难难度的精准模式关卡
  piano generate -m accuracy -d 10

  # 固定种子并导出 MIDI
  piano generate -m accuracy -d 5 --seed 42 --midi level.mid`
}
