package memstore_test

import (
	"testing"
	"time"

	"github.com/robalyx/warden/internal/database/memstore"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanStore(t *testing.T) {
	t.Parallel()

	s := memstore.NewBanStore()

	for i, guild := range []int64{1, 2, 1} {
		require.NoError(t, s.Insert(t.Context(), &types.GuildBan{
			GuildID:   guild,
			UserID:    10,
			Reason:    "raid",
			Active:    true,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	changed, err := s.Deactivate(t.Context(), 1, 10)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Deactivate(t.Context(), 1, 10)
	require.NoError(t, err)
	assert.False(t, changed)

	bans, err := s.GetByUser(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, bans, 3)

	assert.Equal(t, []int64{3, 2, 1}, []int64{bans[0].ID, bans[1].ID, bans[2].ID})
	assert.False(t, bans[0].Active)
	assert.True(t, bans[1].Active)
	assert.False(t, bans[2].Active)

	none, err := s.GetByUser(t.Context(), 11)
	require.NoError(t, err)
	assert.Empty(t, none)
}
