package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap/zaptest"
)

// offlineDB builds a bun.DB that never connects, for rendering queries.
func offlineDB(t *testing.T) *bun.DB {
	t.Helper()

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mockDB(t *testing.T) (*InfractionModel, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	return NewInfraction(db, zaptest.NewLogger(t)), mock
}

func TestFilterInfractions(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name     string
		criteria *types.InfractionSearchCriteria
		contains []string
		excludes []string
	}{
		{
			name:     "nil criteria adds no conditions",
			criteria: nil,
			excludes: []string{"WHERE"},
		},
		{
			name: "ids and types",
			criteria: &types.InfractionSearchCriteria{
				GuildID:     utils.Ptr(snowflake.ID(100)),
				SubjectID:   utils.Ptr(snowflake.ID(200)),
				CreatedByID: utils.Ptr(snowflake.ID(300)),
				Types:       []enum.InfractionType{enum.InfractionTypeWarning, enum.InfractionTypeBan},
			},
			contains: []string{
				"infraction.guild_id = 100",
				"infraction.subject_id = 200",
				"create_action.created_by_id = 300",
				"infraction.type IN (1, 3)",
			},
		},
		{
			name: "created range",
			criteria: &types.InfractionSearchCriteria{
				CreatedRange: &types.DateTimeRange{From: &from, To: &to},
			},
			contains: []string{"create_action.created >= '2026-01-01", "create_action.created <= '2026-01-02"},
			excludes: []string{"duration IS NOT NULL"},
		},
		{
			name: "expires range uses both bounds",
			criteria: &types.InfractionSearchCriteria{
				ExpiresRange: &types.DateTimeRange{From: &from, To: &to},
			},
			contains: []string{
				"infraction.duration IS NOT NULL",
				types.ExpiresColumn + " >= '2026-01-01",
				types.ExpiresColumn + " <= '2026-01-02",
			},
		},
		{
			name: "state flags",
			criteria: &types.InfractionSearchCriteria{
				IsRescinded: utils.Ptr(true),
				IsDeleted:   utils.Ptr(false),
			},
			contains: []string{"infraction.rescind_action_id IS NOT NULL", "infraction.delete_action_id IS NULL"},
		},
	}

	db := offlineDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rendered := FilterInfractions(db.NewSelect().Model((*types.Infraction)(nil)), tt.criteria).String()
			for _, part := range tt.contains {
				assert.Contains(t, rendered, part)
			}
			for _, part := range tt.excludes {
				assert.NotContains(t, rendered, part)
			}
		})
	}
}

func TestApplySorting(t *testing.T) {
	t.Parallel()

	keys, err := types.InfractionSortProperties.Resolve([]query.SortingCriteria{
		{PropertyName: types.SortByExpires, Direction: query.SortDirectionDescending},
		{PropertyName: types.SortByGuildID},
	})
	require.NoError(t, err)
	keys = append(keys, types.IDTieBreak)

	rendered := applySorting(offlineDB(t).NewSelect().Model((*types.Infraction)(nil)), keys).String()

	assert.Contains(t, rendered, "ORDER BY "+types.ExpiresColumn+" DESC NULLS LAST, "+
		"infraction.guild_id ASC NULLS FIRST, infraction.id ASC NULLS FIRST")
}

func TestSelectSummariesJoinsActions(t *testing.T) {
	t.Parallel()

	m := NewInfraction(offlineDB(t), zaptest.NewLogger(t))

	var infractions []*types.Infraction
	rendered := m.selectSummaries(m.db, &infractions, nil).String()

	for _, alias := range []string{`AS "create_action"`, `AS "rescind_action"`, `AS "delete_action"`} {
		assert.Contains(t, rendered, alias)
	}
}

func TestInsertRunsInOneTransaction(t *testing.T) {
	t.Parallel()

	m, mock := mockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "moderation_actions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(`INSERT INTO "infractions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(`UPDATE "moderation_actions" .*"infraction_id" = 3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := m.Insert(t.Context(), &types.InfractionCreationData{
		GuildID:     1,
		SubjectID:   2,
		CreatedByID: 3,
		Type:        enum.InfractionTypeNotice,
		Reason:      "note",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadNotFound(t *testing.T) {
	t.Parallel()

	m, mock := mockDB(t)

	mock.ExpectQuery(`SELECT .* FROM "infractions" AS "infraction"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.Read(t.Context(), 9)
	require.ErrorIs(t, err, types.ErrInfractionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAction(t *testing.T) {
	t.Parallel()

	lockedRow := func(rescindID any) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "rescind_action_id", "delete_action_id"}).
			AddRow(int64(5), rescindID, nil)
	}

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		want   bool
	}{
		{
			name: "attaches action",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FOR UPDATE`).WillReturnRows(lockedRow(nil))
				mock.ExpectQuery(`INSERT INTO "moderation_actions"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(55)))
				mock.ExpectExec(`UPDATE "infractions" .*"rescind_action_id" = 55.*"rescind_action_id" IS NULL`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: true,
		},
		{
			name: "missing infraction",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FOR UPDATE`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "rescind_action_id", "delete_action_id"}))
				mock.ExpectCommit()
			},
			want: false,
		},
		{
			name: "already rescinded",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FOR UPDATE`).WillReturnRows(lockedRow(int64(9)))
				mock.ExpectCommit()
			},
			want: false,
		},
		{
			name: "conditional write lost",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FOR UPDATE`).WillReturnRows(lockedRow(nil))
				mock.ExpectQuery(`INSERT INTO "moderation_actions"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(56)))
				mock.ExpectExec(`UPDATE "infractions"`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, mock := mockDB(t)
			tt.expect(mock)

			ok, err := m.AppendAction(t.Context(), 5, enum.ModerationActionTypeInfractionRescinded, 77, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppendActionRejectsCreated(t *testing.T) {
	t.Parallel()

	m, mock := mockDB(t)

	_, err := m.AppendAction(t.Context(), 5, enum.ModerationActionTypeInfractionCreated, 77, time.Now())
	require.ErrorIs(t, err, types.ErrActionNotAppendable)
	require.NoError(t, mock.ExpectationsWereMet())
}
