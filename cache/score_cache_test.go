package cache

import (
	"context"
	"testing"

	"PianoInstructor/core/score"
	"PianoInstructor/model"

	"github.com/stretchr/testify/assert"
)

func TestHighScoreHash(t *testing.T) {
	key := score.Key{Player: "alice", Mode: model.ModeListen, Difficulty: 5}
	assert.Equal(t, "score:listen:5", highScoreHash(key))
}

func TestScoreCacheWithoutClient(t *testing.T) {
	c := NewScoreCacheWithClient(nil)
	ctx := context.Background()

	_, err := c.Get(ctx, score.Key{})
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, score.Key{}, 1))
	_, err = c.Players(ctx, "listen", 1)
	assert.Error(t, err)
	assert.Error(t, CheckRedis(ctx))
}
