package storage

import (
	"context"
	"testing"

	"PianoInstructor/core/score"
	"PianoInstructor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryScores(t *testing.T) *LocalScores {
	t.Helper()
	s, err := OpenLocalScores(LocalScoresOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLocalScoresGetSet(t *testing.T) {
	ctx := context.Background()
	s := openMemoryScores(t)
	key := score.Key{Player: "alice", Mode: model.ModeAccuracy, Difficulty: 10}

	v, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, s.Set(ctx, key, 70))
	v, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 70, v)
}

func TestLocalScoresPlayers(t *testing.T) {
	ctx := context.Background()
	s := openMemoryScores(t)

	require.NoError(t, s.Set(ctx, score.Key{Player: "alice", Mode: model.ModeListen, Difficulty: 1}, 10))
	require.NoError(t, s.Set(ctx, score.Key{Player: "bob", Mode: model.ModeListen, Difficulty: 1}, 20))
	require.NoError(t, s.Set(ctx, score.Key{Player: "carol", Mode: model.ModeListen, Difficulty: 10}, 30))

	players, err := s.Players(ctx, score.Key{Mode: model.ModeListen, Difficulty: 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 10, "bob": 20}, players)
}

func TestLocalScoresWithManager(t *testing.T) {
	ctx := context.Background()
	m := score.NewManager(openMemoryScores(t), nil)

	require.NoError(t, m.SaveScore(ctx, "alice", 40, model.ModeListen, 5))
	require.NoError(t, m.SaveScore(ctx, "alice", 10, model.ModeListen, 5))
	high, err := m.HighScore(ctx, "alice", model.ModeListen, 5)
	require.NoError(t, err)
	assert.Equal(t, 40, high)
}

func TestOpenLocalScoresRequiresDir(t *testing.T) {
	_, err := OpenLocalScores(LocalScoresOptions{})
	assert.Error(t, err)
}
