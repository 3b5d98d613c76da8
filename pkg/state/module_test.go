package state

import (
	"context"
	"testing"

	"github.com/vantagefps/vantage/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *StateService {
	return NewStateService(config.RedisSettings{Enabled: false}, 1200)
}

func TestResolveToken(t *testing.T) {
	service := testService()
	ctx := context.Background()

	first, err := service.ResolvePlayerForToken(ctx, "token-a")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	// Same token resolves to the same player.
	second, err := service.ResolvePlayerForToken(ctx, "token-a")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A different token gets a different identity.
	other, err := service.ResolvePlayerForToken(ctx, "token-b")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEmptyTokenMintsIdentity(t *testing.T) {
	service := testService()
	ctx := context.Background()

	a, err := service.ResolvePlayerForToken(ctx, "")
	require.NoError(t, err)
	b, err := service.ResolvePlayerForToken(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRatings(t *testing.T) {
	service := testService()
	ctx := context.Background()

	rating, err := service.GetRating(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 1200, rating)

	require.NoError(t, service.SetRating(ctx, "somebody", 1350))
	rating, err = service.GetRating(ctx, "somebody")
	require.NoError(t, err)
	assert.Equal(t, 1350, rating)

	// Ratings never go negative.
	require.NoError(t, service.SetRating(ctx, "somebody", -50))
	rating, err = service.GetRating(ctx, "somebody")
	require.NoError(t, err)
	assert.Equal(t, 0, rating)
}

func TestApplyMatchResult(t *testing.T) {
	service := testService()
	ctx := context.Background()

	winners := []string{"w1", "w2"}
	losers := []string{"l1", "l2"}

	require.NoError(t, service.ApplyMatchResult(ctx, winners, losers))

	for _, player := range winners {
		rating, err := service.GetRating(ctx, player)
		require.NoError(t, err)
		assert.Greater(t, rating, 1200)
	}
	for _, player := range losers {
		rating, err := service.GetRating(ctx, player)
		require.NoError(t, err)
		assert.Less(t, rating, 1200)
	}
}
