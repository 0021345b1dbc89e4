package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	// Cache-aside reads degrade to a miss and writes become no-ops.
	var dest []string
	err := repo.Get(ctx, "periods:all", &dest)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, repo.Set(ctx, "periods:all", []string{"a"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "periods:all"))

	// Token storage must refuse instead of dropping the write: a token
	// issued into the void would never verify.
	err = repo.SetString(ctx, "pay:proof:1", "token", time.Minute)
	require.Error(t, err)

	_, err = repo.GetDelString(ctx, "pay:proof:1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))
}
