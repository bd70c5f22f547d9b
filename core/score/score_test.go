package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"PianoInstructor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoard struct {
	entries   []*model.LeaderboardEntry
	createErr error
	topErr    error
	lastQuery [3]any
}

func (b *fakeBoard) Create(_ context.Context, e *model.LeaderboardEntry) error {
	if b.createErr != nil {
		return b.createErr
	}
	b.entries = append(b.entries, e)
	return nil
}

func (b *fakeBoard) Top(_ context.Context, mode, difficulty string, limit int) ([]*model.LeaderboardEntry, error) {
	b.lastQuery = [3]any{mode, difficulty, limit}
	if b.topErr != nil {
		return nil, b.topErr
	}
	return b.entries, nil
}

type brokenScores struct{}

func (brokenScores) Get(context.Context, Key) (int, error) { return 0, errors.New("offline") }
func (brokenScores) Set(context.Context, Key, int) error { return errors.New("offline") }

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Score_accuracy_5", Key{Player: "x", Mode: model.ModeAccuracy, Difficulty: 5}.String())
}

func TestSaveScoreOnlyKeepsNewHighs(t *testing.T) {
	ctx := context.Background()
	board := &fakeBoard{}
	m := NewManager(NewMemoryHighScores(), board)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	require.NoError(t, m.SaveScore(ctx, "alice", 30, model.ModeAccuracy, 10))
	require.NoError(t, m.SaveScore(ctx, "alice", 20, model.ModeAccuracy, 10))
	require.NoError(t, m.SaveScore(ctx, "alice", 30, model.ModeAccuracy, 10))

	high, err := m.HighScore(ctx, "alice", model.ModeAccuracy, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, high)

	require.Len(t, board.entries, 1)
	e := board.entries[0]
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "Test Your Accuracy", e.Mode)
	assert.Equal(t, "Hard", e.Difficulty)
	assert.Equal(t, at, e.Date)

	high, err = m.HighScore(ctx, "bob", model.ModeAccuracy, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, high)
}

func TestSaveScoreZeroIsNotAHigh(t *testing.T) {
	board := &fakeBoard{}
	m := NewManager(NewMemoryHighScores(), board)
	require.NoError(t, m.SaveScore(context.Background(), "alice", 0, model.ModeListen, 1))
	assert.Empty(t, board.entries)
}

func TestSaveScoreLeaderboardFailureKeepsHigh(t *testing.T) {
	ctx := context.Background()
	highs := NewMemoryHighScores()
	m := NewManager(highs, &fakeBoard{createErr: errors.New("db down")})

	require.NoError(t, m.SaveScore(ctx, "alice", 40, model.ModeListen, 5))
	high, _ := m.HighScore(ctx, "alice", model.ModeListen, 5)
	assert.Equal(t, 40, high)
}

func TestSaveScoreStoreFailure(t *testing.T) {
	m := NewManager(brokenScores{}, nil)
	assert.Error(t, m.SaveScore(context.Background(), "alice", 40, model.ModeListen, 5))
}

func TestFetchTop(t *testing.T) {
	ctx := context.Background()
	board := &fakeBoard{entries: []*model.LeaderboardEntry{{Username: "a", Score: 50}}}
	m := NewManager(NewMemoryHighScores(), board)

	top := m.FetchTop(ctx, model.ModeListen, 5, 0)
	assert.Len(t, top, 1)
	assert.Equal(t, [3]any{"Listen & Identify", "Medium", DefaultTopLimit}, board.lastQuery)

	board.topErr = errors.New("timeout")
	top = m.FetchTop(ctx, model.ModeListen, 5, 3)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	assert.Empty(t, NewManager(NewMemoryHighScores(), nil).FetchTop(ctx, model.ModeListen, 1, 10))
}
