package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"PianoInstructor/logger"
	"PianoInstructor/midi"
	"PianoInstructor/model"

	"github.com/gorilla/mux"
)

const defaultSessionLimit = 20

// CreateLevelRequest 创建关卡请求
type CreateLevelRequest struct {
	Mode       string `json:"mode"`
	Difficulty int    `json:"difficulty"`
}

// CreateLevelResponse 创建关卡响应
type CreateLevelResponse struct {
	Session model.Song         `json:"session"`
	Level   model.PlaybackData `json:"level"`
}

// CreateLevelHandler POST /api/levels
func (s *Server) CreateLevelHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	mode, err := model.ParseGameMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	level, song, err := s.deps.Composer.CreateGameLevel(r.Context(), mode, req.Difficulty)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrUnknownMode) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, CreateLevelResponse{Session: song, Level: level})
}

// ListSessionsHandler GET /api/sessions，最新的在前
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultSessionLimit)
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	if s.deps.Sessions != nil {
		songs, err := s.deps.Sessions.Recent(r.Context(), limit)
		if err == nil {
			writeJSON(w, http.StatusOK, songs)
			return
		}
		// 数据库不可用时退回内存列表
		logger.Warn("查询会话列表失败", logger.ErrorField(err))
	}

	sessions := s.deps.Composer.RecentSessions()
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	writeJSON(w, http.StatusOK, sessions)
}

// SessionLevelHandler GET /api/sessions/{id}/level
func (s *Server) SessionLevelHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	level, ok := s.deps.Composer.Level(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// SessionMidiHandler GET /api/sessions/{id}/midi
func (s *Server) SessionMidiHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	level, ok := s.deps.Composer.Level(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var buf bytes.Buffer
	if err := midi.WriteLevel(&buf, level, id); err != nil {
		logger.Error("导出 MIDI 失败", logger.String("sessionId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to export midi")
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mid"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("写入 MIDI 响应失败", logger.ErrorField(err))
	}
}
