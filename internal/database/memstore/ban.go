package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/robalyx/warden/internal/database/types"
)

// BanStore holds guild bans in memory.
type BanStore struct {
	mu     sync.Mutex
	bans   []*types.GuildBan
	nextID int64
}

// NewBanStore creates an empty ban store.
func NewBanStore() *BanStore {
	return &BanStore{}
}

// Insert stores a copy of the ban and assigns its id.
func (s *BanStore) Insert(_ context.Context, ban *types.GuildBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ban.ID = s.nextID

	stored := *ban
	s.bans = append(s.bans, &stored)
	return nil
}

// Deactivate marks the active bans of a user in a guild as inactive.
func (s *BanStore) Deactivate(_ context.Context, guildID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, ban := range s.bans {
		if ban.GuildID == guildID && ban.UserID == userID && ban.Active {
			ban.Active = false
			ban.UpdatedAt = time.Now()
			changed = true
		}
	}
	return changed, nil
}

// GetByUser returns copies of the user's bans, newest first.
func (s *BanStore) GetByUser(_ context.Context, userID int64) ([]*types.GuildBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.GuildBan
	for _, ban := range s.bans {
		if ban.UserID == userID {
			c := *ban
			out = append(out, &c)
		}
	}

	slices.SortFunc(out, func(a, b *types.GuildBan) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}
