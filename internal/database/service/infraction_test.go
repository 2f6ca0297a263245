package service_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/memstore"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/service"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/lock"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errStoreDown = errors.New("store unavailable")

// clock hands out strictly increasing timestamps.
type clock struct {
	ticks atomic.Int64
	start time.Time
}

func (c *clock) now() time.Time {
	return c.start.Add(time.Duration(c.ticks.Add(1)) * time.Minute)
}

func setupService(t *testing.T, opts service.InfractionOptions) (*service.InfractionService, *memstore.InfractionStore) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	c := &clock{start: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	store := memstore.NewInfractionStore(logger, memstore.WithClock(c.now))
	if opts.Now == nil {
		opts.Now = c.now
	}

	return service.NewInfraction(store, lock.NewLocal(), opts, logger), store
}

func warning(guild, subject snowflake.ID) *types.InfractionCreationData {
	return &types.InfractionCreationData{
		GuildID:     guild,
		SubjectID:   subject,
		CreatedByID: 900,
		Type:        enum.InfractionTypeWarning,
		Reason:      "rule 1",
	}
}

func activeOf(guild, subject snowflake.ID, typ enum.InfractionType) *types.InfractionSearchCriteria {
	return &types.InfractionSearchCriteria{
		GuildID:     &guild,
		SubjectID:   &subject,
		Types:       []enum.InfractionType{typ},
		IsRescinded: utils.Ptr(false),
		IsDeleted:   utils.Ptr(false),
	}
}

func TestTryCreate(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{})
	ctx := t.Context()

	id, created, err := svc.TryCreate(ctx, warning(1, 2), activeOf(1, 2, enum.InfractionTypeWarning))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Positive(t, id)

	_, created, err = svc.TryCreate(ctx, warning(1, 2), activeOf(1, 2, enum.InfractionTypeWarning))
	require.NoError(t, err)
	assert.False(t, created, "duplicate must be skipped")

	_, created, err = svc.TryCreate(ctx, warning(1, 2), nil)
	require.NoError(t, err)
	assert.True(t, created, "no dedup criteria always creates")

	ok, err := svc.TryRescind(ctx, id, 901)
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := svc.SearchIDs(ctx, activeOf(1, 2, enum.InfractionTypeWarning))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	ok, err = svc.TryRescind(ctx, ids[0], 901)
	require.NoError(t, err)
	require.True(t, ok)

	_, created, err = svc.TryCreate(ctx, warning(1, 2), activeOf(1, 2, enum.InfractionTypeWarning))
	require.NoError(t, err)
	assert.True(t, created, "rescinded infractions no longer count as duplicates")
}

func TestTryCreateConcurrentDedup(t *testing.T) {
	t.Parallel()

	svc, store := setupService(t, service.InfractionOptions{})

	var (
		wg      conc.WaitGroup
		created atomic.Int64
	)
	for range 32 {
		wg.Go(func() {
			_, ok, err := svc.TryCreate(t.Context(), warning(5, 6), activeOf(5, 6, enum.InfractionTypeWarning))
			assert.NoError(t, err)
			if ok {
				created.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, 1, store.Len())
}

func TestTryCreateValidation(t *testing.T) {
	t.Parallel()

	svc, store := setupService(t, service.InfractionOptions{})
	later := time.Now()
	earlier := later.Add(-time.Hour)

	tests := []struct {
		name    string
		data    *types.InfractionCreationData
		dedup   *types.InfractionSearchCriteria
		wantErr error
	}{
		{"nil data", nil, nil, types.ErrNilCreationData},
		{"out of range subject", warning(1, snowflake.ID(math.MaxUint64)), nil, types.ErrIdentifierOutOfRange},
		{
			"inverted dedup range",
			warning(1, 2),
			&types.InfractionSearchCriteria{CreatedRange: &types.DateTimeRange{From: &later, To: &earlier}},
			types.ErrInvalidTimeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, created, err := svc.TryCreate(t.Context(), tt.data, tt.dedup)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, query.ErrInvalidInput)
			assert.False(t, created)
		})
	}

	t.Cleanup(func() {
		assert.Zero(t, store.Len(), "invalid requests must not reach the store")
	})
}

func TestReadMissing(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{})

	summary, err := svc.Read(t.Context(), 12345)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestRescindAndDeleteAreIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{})
	ctx := t.Context()

	id, _, err := svc.TryCreate(ctx, warning(1, 2), nil)
	require.NoError(t, err)

	for _, step := range []struct {
		name string
		fn   func(context.Context, int64, snowflake.ID) (bool, error)
	}{
		{"rescind", svc.TryRescind},
		{"delete", svc.TryDelete},
	} {
		ok, err := step.fn(ctx, id, 77)
		require.NoError(t, err, step.name)
		assert.True(t, ok, step.name)

		ok, err = step.fn(ctx, id, 78)
		require.NoError(t, err, step.name)
		assert.False(t, ok, step.name)

		ok, err = step.fn(ctx, id+1000, 77)
		require.NoError(t, err, step.name)
		assert.False(t, ok, step.name)
	}

	summary, err := svc.Read(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, summary.RescindAction)
	require.NotNil(t, summary.DeleteAction)
	assert.Equal(t, snowflake.ID(77), summary.RescindAction.CreatedByID)
	assert.Equal(t, snowflake.ID(77), summary.DeleteAction.CreatedByID)
	assert.True(t, summary.DeleteAction.Created.After(summary.RescindAction.Created))
}

func TestConcurrentRescindSucceedsOnce(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{})

	id, _, err := svc.TryCreate(t.Context(), warning(1, 2), nil)
	require.NoError(t, err)

	var (
		wg        conc.WaitGroup
		rescinded atomic.Int64
	)
	for i := range 16 {
		wg.Go(func() {
			ok, err := svc.TryRescind(t.Context(), id, snowflake.ID(100+i)) //nolint:gosec // small loop index
			assert.NoError(t, err)
			if ok {
				rescinded.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int64(1), rescinded.Load())
}

// seedGuilds creates ten infractions split over two guilds:
// guild 1 holds ids 1-6 (alternating Warning and Mute), guild 2 holds ids 7-10 (Ban).
func seedGuilds(t *testing.T, svc *service.InfractionService) {
	t.Helper()

	hour := time.Hour
	for i := range 10 {
		data := warning(1, snowflake.ID(200+i%3)) //nolint:gosec // small loop index
		switch {
		case i >= 6:
			data.GuildID = 2
			data.Type = enum.InfractionTypeBan
		case i%2 == 1:
			data.Type = enum.InfractionTypeMute
			data.Duration = &hour
		}

		_, created, err := svc.TryCreate(t.Context(), data, nil)
		require.NoError(t, err)
		require.True(t, created)
	}
}

func TestSearchSummaries(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{})
	seedGuilds(t, svc)
	ctx := t.Context()

	guild1 := &types.InfractionSearchCriteria{GuildID: utils.Ptr(snowflake.ID(1))}

	all, err := svc.SearchSummaries(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	inGuild, err := svc.SearchSummaries(ctx, guild1, nil)
	require.NoError(t, err)
	assert.Len(t, inGuild, 6)

	mutes, err := svc.SearchSummaries(ctx, &types.InfractionSearchCriteria{
		GuildID: utils.Ptr(snowflake.ID(1)),
		Types:   []enum.InfractionType{enum.InfractionTypeMute},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, mutes, 3)
	for _, m := range mutes {
		assert.True(t, guild1.Matches(m), "filtered results are a subset of the wider filter")
	}

	byType, err := svc.SearchSummaries(ctx, guild1, []query.SortingCriteria{
		{PropertyName: types.SortByType, Direction: query.SortDirectionDescending},
	})
	require.NoError(t, err)
	ids := make([]int64, len(byType))
	for i, s := range byType {
		ids[i] = s.ID
	}
	assert.Equal(t, []int64{2, 4, 6, 1, 3, 5}, ids, "ties broken by ascending id")

	byExpires, err := svc.SearchSummaries(ctx, guild1, []query.SortingCriteria{
		{PropertyName: types.SortByExpires, Direction: query.SortDirectionAscending},
	})
	require.NoError(t, err)
	assert.Nil(t, byExpires[0].Duration, "permanent infractions sort first ascending")

	_, err = svc.SearchSummaries(ctx, nil, []query.SortingCriteria{{PropertyName: "severity"}})
	require.ErrorIs(t, err, query.ErrUnknownSortProperty)
}

func TestSearchSummariesPaged(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{MaxPageSize: 4})
	seedGuilds(t, svc)
	ctx := t.Context()

	sorting := []query.SortingCriteria{{PropertyName: types.SortBySubjectID}}

	full, err := svc.SearchSummaries(ctx, nil, sorting)
	require.NoError(t, err)

	var paged []*types.InfractionSummary
	for offset := 0; offset < len(full)+4; offset += 4 {
		page, err := svc.SearchSummariesPaged(ctx, nil, sorting, query.PagingCriteria{FirstRecordIndex: offset, PageSize: 4})
		require.NoError(t, err)
		assert.Equal(t, int64(10), page.TotalRecordCount)
		assert.Equal(t, int64(10), page.FilteredRecordCount)
		paged = append(paged, page.Records...)
	}
	assert.Equal(t, full, paged, "concatenated pages equal the unpaged result")

	page, err := svc.SearchSummariesPaged(ctx, &types.InfractionSearchCriteria{GuildID: utils.Ptr(snowflake.ID(2))},
		nil, query.PagingCriteria{FirstRecordIndex: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(10), page.TotalRecordCount)
	assert.Equal(t, int64(4), page.FilteredRecordCount)
	require.Len(t, page.Records, 2)
	assert.Equal(t, int64(9), page.Records[0].ID)
	assert.Equal(t, int64(10), page.Records[1].ID)

	for _, paging := range []query.PagingCriteria{
		{FirstRecordIndex: -1, PageSize: 1},
		{FirstRecordIndex: 0, PageSize: 0},
		{FirstRecordIndex: 0, PageSize: 5},
	} {
		_, err := svc.SearchSummariesPaged(ctx, nil, nil, paging)
		require.ErrorIs(t, err, query.ErrInvalidPaging)
	}
}

func TestRescindMatching(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, service.InfractionOptions{MaxConcurrency: 2})
	seedGuilds(t, svc)
	ctx := t.Context()

	ok, err := svc.TryDelete(ctx, 7, 900)
	require.NoError(t, err)
	require.True(t, ok)

	count, err := svc.RescindMatching(ctx, &types.InfractionSearchCriteria{GuildID: utils.Ptr(snowflake.ID(2))}, 901)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "deleted infractions are skipped")

	count, err = svc.RescindMatching(ctx, &types.InfractionSearchCriteria{GuildID: utils.Ptr(snowflake.ID(2))}, 901)
	require.NoError(t, err)
	assert.Zero(t, count)

	rescinded, err := svc.SearchIDs(ctx, &types.InfractionSearchCriteria{IsRescinded: utils.Ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9, 10}, rescinded)
}

// failingStore wraps a working store and fails every search.
type failingStore struct {
	*memstore.InfractionStore
}

func (failingStore) SearchIDs(context.Context, *types.InfractionSearchCriteria) ([]int64, error) {
	return nil, errStoreDown
}

func TestStoreFailurePropagates(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	svc := service.NewInfraction(failingStore{memstore.NewInfractionStore(logger)}, lock.NewLocal(),
		service.InfractionOptions{}, logger)

	_, err := svc.SearchIDs(t.Context(), nil)
	require.ErrorIs(t, err, errStoreDown)

	_, err = svc.RescindMatching(t.Context(), nil, 1)
	require.ErrorIs(t, err, errStoreDown)
}

func TestTryCreateLockContextDone(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	locker := lock.NewLocal()
	store := memstore.NewInfractionStore(logger)
	svc := service.NewInfraction(store, locker, service.InfractionOptions{}, logger)

	unlock, err := locker.Lock(t.Context())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, created, err := svc.TryCreate(ctx, warning(1, 2), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, created)
	assert.Zero(t, store.Len())
}
