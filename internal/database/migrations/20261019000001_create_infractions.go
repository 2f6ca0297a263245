package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, model := range []any{
				(*types.ModerationAction)(nil),
				(*types.Infraction)(nil),
			} {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			// Actions and infractions reference each other, so the constraints
			// are added once both tables exist
			constraints := []string{
				`ALTER TABLE infractions ADD CONSTRAINT fk_infractions_create_action
					FOREIGN KEY (create_action_id) REFERENCES moderation_actions (id)`,
				`ALTER TABLE infractions ADD CONSTRAINT fk_infractions_rescind_action
					FOREIGN KEY (rescind_action_id) REFERENCES moderation_actions (id)`,
				`ALTER TABLE infractions ADD CONSTRAINT fk_infractions_delete_action
					FOREIGN KEY (delete_action_id) REFERENCES moderation_actions (id)`,
				`ALTER TABLE moderation_actions ADD CONSTRAINT fk_moderation_actions_infraction
					FOREIGN KEY (infraction_id) REFERENCES infractions (id)`,
				`ALTER TABLE infractions ADD CONSTRAINT uq_infractions_create_action
					UNIQUE (create_action_id)`,
			}
			for _, stmt := range constraints {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to add constraint: %w", err)
				}
			}

			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_infractions_guild_subject
					ON infractions (guild_id, subject_id)`,
				`CREATE INDEX IF NOT EXISTS idx_infractions_type
					ON infractions (type)`,
				`CREATE INDEX IF NOT EXISTS idx_moderation_actions_created
					ON moderation_actions (created)`,
				`CREATE INDEX IF NOT EXISTS idx_moderation_actions_created_by
					ON moderation_actions (created_by_id)`,
				`CREATE INDEX IF NOT EXISTS idx_moderation_actions_infraction
					ON moderation_actions (infraction_id)`,
			}
			for _, stmt := range indexes {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create index: %w", err)
				}
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range []string{
				`ALTER TABLE IF EXISTS moderation_actions DROP CONSTRAINT IF EXISTS fk_moderation_actions_infraction`,
				`DROP TABLE IF EXISTS infractions`,
				`DROP TABLE IF EXISTS moderation_actions`,
			} {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to drop infraction tables: %w", err)
				}
			}
			return nil
		})
	})
}
