package service_test

import (
	"testing"

	"github.com/robalyx/warden/internal/database/memstore"
	"github.com/robalyx/warden/internal/database/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBanService(t *testing.T) {
	t.Parallel()

	bans := service.NewBan(memstore.NewBanStore(), zaptest.NewLogger(t))
	ctx := t.Context()

	require.NoError(t, bans.Ban(ctx, 1, 42, 9, "raiding"))
	require.NoError(t, bans.Ban(ctx, 2, 42, 9, "spam"))

	lifted, err := bans.Unban(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, lifted)

	lifted, err = bans.Unban(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, lifted)

	list, err := bans.ListBans(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 2)

	text, err := bans.FormatBans(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "spam | Active: true\nraiding | Active: false", text)

	empty, err := bans.FormatBans(ctx, 43)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
