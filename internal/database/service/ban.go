package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types"
	"go.uber.org/zap"
)

// BanStore is a backing store for guild bans.
type BanStore interface {
	Insert(ctx context.Context, ban *types.GuildBan) error
	Deactivate(ctx context.Context, guildID, userID int64) (bool, error)
	GetByUser(ctx context.Context, userID int64) ([]*types.GuildBan, error)
}

// BanService handles ban-related business logic.
type BanService struct {
	store  BanStore
	logger *zap.Logger
}

// NewBan creates a new ban service.
func NewBan(store BanStore, logger *zap.Logger) *BanService {
	return &BanService{
		store:  store,
		logger: logger.Named("ban_service"),
	}
}

// Ban records an active ban of a user in a guild.
func (b *BanService) Ban(ctx context.Context, guildID, userID, creatorID snowflake.ID, reason string) error {
	ids := make([]int64, 0, 3)
	for _, id := range []snowflake.ID{guildID, userID, creatorID} {
		storageID, err := types.StorageID(id)
		if err != nil {
			return err
		}
		ids = append(ids, storageID)
	}

	now := time.Now()
	ban := &types.GuildBan{
		GuildID:   ids[0],
		UserID:    ids[1],
		CreatorID: ids[2],
		Reason:    reason,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := b.store.Insert(ctx, ban); err != nil {
		b.logger.Error("Failed to create ban record",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
		return err
	}

	b.logger.Info("Created ban record",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Uint64("creatorID", uint64(creatorID)))

	return nil
}

// Unban marks the user's active ban in the guild as inactive.
// Returns false if the user had no active ban there.
func (b *BanService) Unban(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	guild, err := types.StorageID(guildID)
	if err != nil {
		return false, err
	}
	user, err := types.StorageID(userID)
	if err != nil {
		return false, err
	}

	return b.store.Deactivate(ctx, guild, user)
}

// ListBans returns every ban recorded for a user, newest first.
func (b *BanService) ListBans(ctx context.Context, userID snowflake.ID) ([]*types.GuildBan, error) {
	user, err := types.StorageID(userID)
	if err != nil {
		return nil, err
	}
	return b.store.GetByUser(ctx, user)
}

// FormatBans renders the user's bans one per line.
func (b *BanService) FormatBans(ctx context.Context, userID snowflake.ID) (string, error) {
	bans, err := b.ListBans(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list bans: %w", err)
	}

	var sb strings.Builder
	for i, ban := range bans {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s | Active: %t", ban.Reason, ban.Active)
	}
	return sb.String(), nil
}
