package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BanModel handles database operations for guild bans.
type BanModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBan creates a new BanModel instance.
func NewBan(db *bun.DB, logger *zap.Logger) *BanModel {
	return &BanModel{
		db:     db,
		logger: logger.Named("db_ban"),
	}
}

// Insert stores a new ban record.
func (m *BanModel) Insert(ctx context.Context, ban *types.GuildBan) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(ban).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert ban: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Inserted ban",
		zap.Int64("guildID", ban.GuildID),
		zap.Int64("userID", ban.UserID),
		zap.Int64("creatorID", ban.CreatorID))

	return nil
}

// Deactivate marks the active bans of a user in a guild as inactive.
// Returns true if at least one ban was active.
func (m *BanModel) Deactivate(ctx context.Context, guildID, userID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.GuildBan)(nil)).
			Set("active = ?", false).
			Set("updated_at = ?", time.Now()).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Where("active").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate ban: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// GetByUser retrieves every ban recorded for a user, newest first.
func (m *BanModel) GetByUser(ctx context.Context, userID int64) ([]*types.GuildBan, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.GuildBan, error) {
		var bans []*types.GuildBan

		err := m.db.NewSelect().
			Model(&bans).
			Where("user_id = ?", userID).
			Order("created_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get bans: %w", err)
		}

		return bans, nil
	})
}
