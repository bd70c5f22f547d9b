package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"PianoInstructor/core/game"
	"PianoInstructor/core/theory"
	"PianoInstructor/logger"
	"PianoInstructor/model"

	"github.com/bep/debounce"
	"github.com/gorilla/websocket"
)

const (
	replayDebounce = 200 * time.Millisecond
	finishTimeout  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 跨域由 CORS 层控制
	},
}

// wsAudio 把音符转成 note_play 消息，由客户端合成
type wsAudio struct {
	client *Client
}

func (a wsAudio) Play(note model.NoteEvent) {
	a.client.SendMessage(MsgTypeNotePlay, NotePlayData{
		Pitch:     note.Pitch,
		Name:      theory.NoteName(note.Pitch),
		Frequency: theory.Frequency(note.Pitch),
		Duration:  note.Duration,
	})
}

// PlayHandler GET /ws/play?mode=&difficulty=&player=
// 生成关卡、创建游戏会话，并通过 WebSocket 驱动整局游戏
func (s *Server) PlayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := model.ParseGameMode(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	difficulty := model.DifficultyEasy
	if v := q.Get("difficulty"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			writeError(w, http.StatusBadRequest, "invalid difficulty")
			return
		}
		difficulty = d
	}
	player := q.Get("player")
	if player == "" {
		player = s.deps.Config.PlayerName
	}

	level, song, err := s.deps.Composer.CreateGameLevel(r.Context(), mode, difficulty)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := newClient(conn, song.ID)
	sched := s.deps.NewScheduler()
	cfg := game.Config{
		Difficulty:   difficulty,
		Player:       player,
		Scheduler:    sched,
		Audio:        wsAudio{client: client},
		Sink:         game.SinkFunc(func(e game.Event) { client.SendMessage(MessageType(e.Type), e) }),
		Scores:       s.deps.Scores,
		Random:       s.deps.Random,
		TickInterval: s.deps.Config.TickInterval,
	}

	var g game.Game
	switch mode {
	case model.ModeAccuracy:
		g = game.NewAccuracyGame(s.deps.Composer, cfg)
	default:
		g = game.NewListenGame(s.deps.Composer, cfg)
	}

	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
			defer cancel()

			final := g.Quit(ctx)
			s.registry.Unregister(song.ID)
			sched.Close()
			s.recordResult(ctx, song, level, player, final)
		})
	}

	s.registry.Register(r.Context(), song.ID, g)
	go client.WritePump()

	client.SendMessage(MsgTypeReady, ReadyData{
		SessionID:  song.ID,
		Title:      song.Title,
		Mode:       string(mode),
		Difficulty: difficulty,
		Player:     player,
	})
	if err := g.Start(); err != nil {
		logger.Error("游戏启动失败", logger.String("session", song.ID), logger.ErrorField(err))
		finish()
		client.Close()
		return
	}

	// 服务关闭时断开连接
	go func() {
		select {
		case <-s.done:
			finish()
			client.Close()
		case <-client.done:
		}
	}()

	debounced := debounce.New(replayDebounce)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.ReadPump(ctx, func(msg *WSMessage) {
		switch msg.Type {
		case MsgTypeAnswer:
			var data AnswerData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				client.SendMessage(MsgTypeError, map[string]string{"error": "invalid answer"})
				return
			}
			g.Answer(data.Option)

		case MsgTypeReplay:
			rp, ok := g.(game.Replayer)
			if !ok {
				client.SendMessage(MsgTypeError, map[string]string{"error": "replay not supported"})
				return
			}
			debounced(func() { rp.Replay() })

		case MsgTypeQuit:
			finish()
			client.Close()
			cancel()

		default:
			logger.Debug("unknown message type",
				logger.String("type", string(msg.Type)),
				logger.String("session", song.ID))
		}
	})

	// 连接断开也视为退出
	finish()
	client.Close()
}

// recordResult 写回会话分数并归档，失败只记录日志
func (s *Server) recordResult(ctx context.Context, song model.Song, level model.PlaybackData, player string, final int) {
	s.deps.Composer.SetSessionScore(song.ID, final)

	if s.deps.Sessions != nil {
		if err := s.deps.Sessions.UpdateScore(ctx, song.ID, final); err != nil {
			logger.Warn("更新会话分数失败", logger.String("session", song.ID), logger.ErrorField(err))
		}
	}

	if s.deps.Archive != nil {
		song.Score = final
		summary := model.SessionSummary{
			Session:    song,
			Player:     player,
			FinalScore: final,
			EndedAt:    time.Now(),
			Level:      level,
		}
		if err := s.deps.Archive.ArchiveSession(ctx, summary); err != nil {
			logger.Warn("归档会话失败", logger.String("session", song.ID), logger.ErrorField(err))
		}
	}
}
