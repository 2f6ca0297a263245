package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*types.GuildBan)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create guild_bans table: %w", err)
		}

		_, err = db.NewCreateIndex().
			Model((*types.GuildBan)(nil)).
			Index("idx_guild_bans_guild_user").
			Column("guild_id", "user_id").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create guild_bans index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*types.GuildBan)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
