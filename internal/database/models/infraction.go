package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// errActionAlreadyAttached rolls back an append that lost the conditional write.
var errActionAlreadyAttached = errors.New("moderation action already attached")

// InfractionModel handles database operations for infractions and their moderation actions.
type InfractionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewInfraction creates a new InfractionModel instance.
func NewInfraction(db *bun.DB, logger *zap.Logger) *InfractionModel {
	return &InfractionModel{
		db:     db,
		logger: logger.Named("db_infraction"),
	}
}

// Exists checks whether any infraction matches the criteria.
func (m *InfractionModel) Exists(ctx context.Context, criteria *types.InfractionSearchCriteria) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.selectInfractions(m.db, criteria).Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check for matching infractions: %w", err)
		}
		return exists, nil
	})
}

// Insert stores a new infraction together with its Created action in one transaction.
// The action is written first without an infraction reference, the infraction is
// written pointing at it, then the action's reference is backfilled. Readers never
// observe the intermediate states because they are never committed.
func (m *InfractionModel) Insert(ctx context.Context, data *types.InfractionCreationData) (int64, error) {
	var id int64

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		entity := data.ToEntity(time.Now())

		if _, err := tx.NewInsert().Model(entity.CreateAction).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert create action: %w", err)
		}

		entity.CreateActionID = entity.CreateAction.ID
		if _, err := tx.NewInsert().Model(entity).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert infraction: %w", err)
		}

		entity.CreateAction.InfractionID = &entity.ID
		if _, err := tx.NewUpdate().
			Model(entity.CreateAction).
			Column("infraction_id").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to backfill create action: %w", err)
		}

		id = entity.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.logger.Debug("Inserted infraction",
		zap.Int64("id", id),
		zap.Uint64("guildID", uint64(data.GuildID)),
		zap.Uint64("subjectID", uint64(data.SubjectID)),
		zap.String("type", data.Type.String()))

	return id, nil
}

// Read retrieves the summary of an infraction. Returns ErrInfractionNotFound if missing.
func (m *InfractionModel) Read(ctx context.Context, id int64) (*types.InfractionSummary, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.InfractionSummary, error) {
		var infraction types.Infraction

		err := m.selectSummaries(m.db, &infraction, nil).
			Where("infraction.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrInfractionNotFound
			}
			return nil, fmt.Errorf("failed to read infraction: %w", err)
		}

		return types.NewInfractionSummary(&infraction), nil
	})
}

// SearchIDs returns the ids of all infractions matching the criteria.
func (m *InfractionModel) SearchIDs(ctx context.Context, criteria *types.InfractionSearchCriteria) ([]int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]int64, error) {
		var ids []int64

		err := m.selectInfractions(m.db, criteria).
			ColumnExpr("infraction.id").
			OrderExpr("infraction.id ASC").
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to search infraction ids: %w", err)
		}

		return ids, nil
	})
}

// SearchSummaries returns the summaries of all infractions matching the criteria,
// sorted by the given keys.
func (m *InfractionModel) SearchSummaries(
	ctx context.Context, criteria *types.InfractionSearchCriteria, sorting []query.SortKey[types.InfractionSortProperty],
) ([]*types.InfractionSummary, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.InfractionSummary, error) {
		var infractions []*types.Infraction

		q := m.selectSummaries(m.db, &infractions, criteria)
		if err := applySorting(q, sorting).Scan(ctx); err != nil {
			return nil, fmt.Errorf("failed to search infractions: %w", err)
		}

		return toSummaries(infractions), nil
	})
}

// SearchSummariesPaged returns one page of matching summaries plus the total and
// filtered counts. All three queries run inside one snapshot transaction.
// Sorting must already end with the id tie-break.
func (m *InfractionModel) SearchSummariesPaged(
	ctx context.Context, criteria *types.InfractionSearchCriteria,
	sorting []query.SortKey[types.InfractionSortProperty], paging query.PagingCriteria,
) (*query.RecordsPage[*types.InfractionSummary], error) {
	var page *query.RecordsPage[*types.InfractionSummary]

	err := dbretry.Snapshot(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		total, err := tx.NewSelect().Model((*types.Infraction)(nil)).Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count infractions: %w", err)
		}

		filtered, err := m.selectInfractions(tx, criteria).Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count filtered infractions: %w", err)
		}

		var infractions []*types.Infraction

		err = applySorting(m.selectSummaries(tx, &infractions, criteria), sorting).
			Offset(paging.FirstRecordIndex).
			Limit(paging.PageSize).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to page infractions: %w", err)
		}

		page = &query.RecordsPage[*types.InfractionSummary]{
			TotalRecordCount:    int64(total),
			FilteredRecordCount: int64(filtered),
			Records:             toSummaries(infractions),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return page, nil
}

// AppendAction attaches a rescind or delete action to an infraction.
// Returns false if the infraction does not exist or already carries that action.
// The row is locked for the duration of the check so two concurrent callers
// cannot both attach the action.
func (m *InfractionModel) AppendAction(
	ctx context.Context, id int64, actionType enum.ModerationActionType, actorID int64, at time.Time,
) (bool, error) {
	column, err := actionColumn(actionType)
	if err != nil {
		return false, err
	}

	var appended bool

	err = dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		appended = false

		var infraction types.Infraction

		err := tx.NewSelect().
			Model(&infraction).
			Where("infraction.id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock infraction: %w", err)
		}

		current := infraction.RescindActionID
		if actionType == enum.ModerationActionTypeInfractionDeleted {
			current = infraction.DeleteActionID
		}
		if current != nil {
			return nil
		}

		action := &types.ModerationAction{
			Type:         actionType,
			Created:      at,
			CreatedByID:  actorID,
			InfractionID: &infraction.ID,
		}
		if _, err := tx.NewInsert().Model(action).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert %s action: %w", actionType, err)
		}

		// Conditional write so the action is only attached while the reference is empty
		res, err := tx.NewUpdate().
			Model((*types.Infraction)(nil)).
			Set("? = ?", bun.Ident(column), action.ID).
			Where("id = ?", id).
			Where("? IS NULL", bun.Ident(column)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to attach %s action: %w", actionType, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errActionAlreadyAttached
		}

		appended = true
		return nil
	})
	if errors.Is(err, errActionAlreadyAttached) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if appended {
		m.logger.Debug("Appended moderation action",
			zap.Int64("infractionID", id),
			zap.String("type", actionType.String()),
			zap.Int64("actorID", actorID))
	}

	return appended, nil
}

// selectInfractions builds a query over infractions joined with the actions
// needed by the filters, without selecting the action columns.
func (m *InfractionModel) selectInfractions(db bun.IDB, criteria *types.InfractionSearchCriteria) *bun.SelectQuery {
	q := db.NewSelect().
		Model((*types.Infraction)(nil)).
		Join("JOIN moderation_actions AS create_action ON create_action.id = infraction.create_action_id")
	return FilterInfractions(q, criteria)
}

// selectSummaries builds a query loading infractions with all their actions.
func (m *InfractionModel) selectSummaries(
	db bun.IDB, dest any, criteria *types.InfractionSearchCriteria,
) *bun.SelectQuery {
	q := db.NewSelect().
		Model(dest).
		Relation("CreateAction").
		Relation("RescindAction").
		Relation("DeleteAction")
	return FilterInfractions(q, criteria)
}

// FilterInfractions applies the criteria to a query over infractions joined with
// their Created action under the alias "create_action". Absent criteria fields
// are skipped.
func FilterInfractions(q *bun.SelectQuery, c *types.InfractionSearchCriteria) *bun.SelectQuery {
	if c == nil {
		return q
	}

	var guildID, subjectID, createdByID int64
	if c.GuildID != nil {
		guildID, _ = types.StorageID(*c.GuildID)
	}
	if c.SubjectID != nil {
		subjectID, _ = types.StorageID(*c.SubjectID)
	}
	if c.CreatedByID != nil {
		createdByID, _ = types.StorageID(*c.CreatedByID)
	}

	created := c.CreatedRange
	if created == nil {
		created = &types.DateTimeRange{}
	}
	expires := c.ExpiresRange
	if expires == nil {
		expires = &types.DateTimeRange{}
	}

	return query.Chain(q,
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("infraction.guild_id = ?", guildID)
		}, c.GuildID != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("infraction.type IN (?)", bun.In(c.Types))
		}, len(c.Types) > 0),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("infraction.subject_id = ?", subjectID)
		}, c.SubjectID != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("create_action.created >= ?", *created.From)
		}, created.From != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("create_action.created <= ?", *created.To)
		}, created.To != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("create_action.created_by_id = ?", createdByID)
		}, c.CreatedByID != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			if *c.IsRescinded {
				return q.Where("infraction.rescind_action_id IS NOT NULL")
			}
			return q.Where("infraction.rescind_action_id IS NULL")
		}, c.IsRescinded != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			if *c.IsDeleted {
				return q.Where("infraction.delete_action_id IS NOT NULL")
			}
			return q.Where("infraction.delete_action_id IS NULL")
		}, c.IsDeleted != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("infraction.duration IS NOT NULL").
				Where("? >= ?", bun.Safe(types.ExpiresColumn), *expires.From)
		}, expires.From != nil),
		query.FilterBy(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("infraction.duration IS NOT NULL").
				Where("? <= ?", bun.Safe(types.ExpiresColumn), *expires.To)
		}, expires.To != nil),
	)
}

// applySorting orders the query by the resolved sort keys. Absent values sort
// as the smallest value, matching the in-memory comparators.
func applySorting(q *bun.SelectQuery, sorting []query.SortKey[types.InfractionSortProperty]) *bun.SelectQuery {
	for _, key := range sorting {
		if key.Direction == query.SortDirectionDescending {
			q = q.OrderExpr("? DESC NULLS LAST", bun.Safe(key.Key.Column))
		} else {
			q = q.OrderExpr("? ASC NULLS FIRST", bun.Safe(key.Key.Column))
		}
	}
	return q
}

// actionColumn maps an appendable action type to its reference column.
func actionColumn(actionType enum.ModerationActionType) (string, error) {
	switch actionType {
	case enum.ModerationActionTypeInfractionRescinded:
		return "rescind_action_id", nil
	case enum.ModerationActionTypeInfractionDeleted:
		return "delete_action_id", nil
	case enum.ModerationActionTypeInfractionCreated:
		return "", fmt.Errorf("%w: %s", types.ErrActionNotAppendable, actionType)
	default:
		return "", fmt.Errorf("%w: %d", types.ErrActionNotAppendable, actionType)
	}
}

func toSummaries(infractions []*types.Infraction) []*types.InfractionSummary {
	summaries := make([]*types.InfractionSummary, 0, len(infractions))
	for _, infraction := range infractions {
		summaries = append(summaries, types.NewInfractionSummary(infraction))
	}
	return summaries
}
