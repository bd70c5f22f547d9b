package server

import (
	"net/http"

	"PianoInstructor/model"
)

// HighScoreHandler GET /api/scores/high?mode=&difficulty=&player=
func (s *Server) HighScoreHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := model.ParseGameMode(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	difficulty := queryInt(r, "difficulty", model.DifficultyEasy)
	player := q.Get("player")
	if player == "" {
		player = s.deps.Config.PlayerName
	}

	high, err := s.deps.Scores.HighScore(r.Context(), player, mode, difficulty)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "high score store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"player":     player,
		"mode":       mode,
		"difficulty": difficulty,
		"score":      high,
	})
}

// LeaderboardHandler GET /api/leaderboard?mode=&difficulty=&limit=
// 查询失败时返回空列表
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	mode, err := model.ParseGameMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	difficulty := queryInt(r, "difficulty", model.DifficultyEasy)
	limit := queryInt(r, "limit", 0)

	entries := s.deps.Scores.FetchTop(r.Context(), mode, difficulty, limit)
	summaries := make([]model.ScoreSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, model.ScoreSummary{Username: e.Username, Score: e.Score})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":       mode.Label(),
		"difficulty": model.DifficultyLabel(difficulty),
		"entries":    summaries,
	})
}
