package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"PianoInstructor/core/engine"
	"PianoInstructor/core/game"
	"PianoInstructor/core/score"
	"PianoInstructor/core/theory"
	"PianoInstructor/core/timeline"
	"PianoInstructor/logger"
	"PianoInstructor/model"
	"PianoInstructor/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	playMode       string
	playDifficulty int
	playPlayer     string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// terminal 把游戏事件渲染到终端，并记住当前的候选项
type terminal struct {
	out io.Writer

	mu      sync.Mutex
	options []string
}

func (t *terminal) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format, args...)
}

// Play 控制台没有合成器，只显示音符
func (t *terminal) Play(note model.NoteEvent) {
	t.printf("%s\n", dimStyle.Render(fmt.Sprintf("♪ %s (%.2f Hz, %.1fs)",
		theory.NoteName(note.Pitch), theory.Frequency(note.Pitch), note.Duration)))
}

func (t *terminal) Emit(e game.Event) {
	switch e.Type {
	case game.EventRoundStarted, game.EventQuestion:
		t.mu.Lock()
		t.options = e.Options
		t.mu.Unlock()

		header := fmt.Sprintf("第 %d 题", e.Index+1)
		if e.Type == game.EventRoundStarted {
			header = fmt.Sprintf("第 %d 轮，%.1fs 后落下", e.Index+1, e.TimeUntilImpact)
		}
		t.printf("\n%s\n", labelStyle.Render(header))
		for i, opt := range e.Options {
			t.printf("  %d) %s\n", i+1, opt)
		}

	case game.EventRoundResolved, game.EventQuestionResolved:
		switch {
		case e.Correct:
			t.printf("%s\n", goodStyle.Render("✔ 正确"))
		case e.Missed:
			t.printf("%s\n", badStyle.Render("✘ 超时，答案是 "+e.CorrectAnswer))
		default:
			t.printf("%s\n", badStyle.Render("✘ 错误，答案是 "+e.CorrectAnswer))
		}

	case game.EventScoreUpdated:
		t.printf("%s\n", dimStyle.Render(fmt.Sprintf("得分 %d", e.Score)))

	case game.EventFinalScore:
		t.printf("\n%s\n", titleStyle.Render(fmt.Sprintf("最终得分 %d", e.Score)))
	}
}

// resolve 把输入的序号转成候选项，其余原样返回
func (t *terminal) resolve(input string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(t.options) {
		return t.options[n-1]
	}
	return input
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "在终端中练习",
	Long:  `在终端中进行一局听音或精准模式练习，最高分保存在本地目录。输入序号作答，r 重播，q 退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(true)
		defer logger.Sync()

		mode, err := model.ParseGameMode(playMode)
		if err != nil {
			return err
		}
		if playDifficulty < 1 {
			return fmt.Errorf("difficulty must be >= 1, got %d", playDifficulty)
		}
		player := playPlayer
		if player == "" {
			player = cfg.PlayerName
		}

		local, err := storage.OpenLocalScores(storage.LocalScoresOptions{Dir: cfg.LocalScoreDir})
		if err != nil {
			return err
		}
		defer local.Close()
		scores := score.NewManager(local, nil)

		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rnd := engine.NewRandom(seed)
		composer := engine.NewComposer(engine.NewGenerator(rnd))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		high, err := scores.HighScore(ctx, player, mode, playDifficulty)
		if err != nil {
			return err
		}

		term := &terminal{out: cmd.OutOrStdout()}
		term.printf("%s\n%s\n", titleStyle.Render(fmt.Sprintf("%s (Lvl %d)", mode.Label(), playDifficulty)),
			dimStyle.Render(fmt.Sprintf("%s 的最高分: %d", player, high)))

		sched := timeline.NewLoop()
		defer sched.Close()
		gcfg := game.Config{
			Difficulty:   playDifficulty,
			Player:       player,
			Scheduler:    sched,
			Audio:        term,
			Sink:         term,
			Scores:       scores,
			Random:       rnd,
			TickInterval: cfg.TickInterval,
		}
		var g game.Game
		if mode == model.ModeAccuracy {
			g = game.NewAccuracyGame(composer, gcfg)
		} else {
			g = game.NewListenGame(composer, gcfg)
		}
		if err := g.Start(); err != nil {
			return err
		}

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines <- strings.TrimSpace(scanner.Text())
			}
		}()

		for {
			select {
			case <-ctx.Done():
				g.Quit(context.Background())
				return nil
			case line, ok := <-lines:
				if !ok || line == "q" {
					g.Quit(context.Background())
					return nil
				}
				if line == "r" {
					if rp, ok := g.(game.Replayer); ok {
						rp.Replay()
					}
					continue
				}
				if line == "" {
					continue
				}
				if _, accepted := g.Answer(term.resolve(line)); !accepted {
					term.printf("%s\n", dimStyle.Render("请等待下一题"))
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playMode, "mode", "m", string(model.ModeListen), "游戏模式: listen | accuracy")
	playCmd.Flags().IntVarP(&playDifficulty, "difficulty", "d", model.DifficultyEasy, "难度 (>= 1)")
	playCmd.Flags().StringVarP(&playPlayer, "player", "p", "", "玩家名，默认取 PLAYER_NAME")
}
