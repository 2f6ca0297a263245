// Package memstore keeps infractions in process memory. It serves the same
// contract as the Postgres models and backs tests and the CLI's --memory mode.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// InfractionStore holds infraction summaries keyed by id. Stored summaries are
// never handed out; callers always receive copies.
type InfractionStore struct {
	mu          sync.RWMutex
	infractions map[int64]*types.InfractionSummary
	nextID      int64
	nextAction  int64
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures an InfractionStore.
type Option func(*InfractionStore)

// WithClock overrides the time source used for action timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InfractionStore) {
		s.now = now
	}
}

// NewInfractionStore creates an empty store.
func NewInfractionStore(logger *zap.Logger, opts ...Option) *InfractionStore {
	s := &InfractionStore{
		infractions: make(map[int64]*types.InfractionSummary),
		now:         time.Now,
		logger:      logger.Named("mem_infraction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists checks whether any infraction matches the criteria.
func (s *InfractionStore) Exists(_ context.Context, criteria *types.InfractionSearchCriteria) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, summary := range s.infractions {
		if criteria.Matches(summary) {
			return true, nil
		}
	}
	return false, nil
}

// Insert stores a new infraction together with its Created action.
func (s *InfractionStore) Insert(_ context.Context, data *types.InfractionCreationData) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.nextAction++

	summary := &types.InfractionSummary{
		ID:        s.nextID,
		GuildID:   data.GuildID,
		SubjectID: data.SubjectID,
		Type:      data.Type,
		Reason:    data.Reason,
		Duration:  cloneDuration(data.Duration),
		CreateAction: types.ModerationActionBrief{
			ID:          s.nextAction,
			Created:     s.now(),
			CreatedByID: data.CreatedByID,
		},
	}
	s.infractions[summary.ID] = summary

	s.logger.Debug("Inserted infraction",
		zap.Int64("id", summary.ID),
		zap.Uint64("guildID", uint64(data.GuildID)),
		zap.Uint64("subjectID", uint64(data.SubjectID)),
		zap.String("type", data.Type.String()))

	return summary.ID, nil
}

// Read returns a copy of the infraction summary. Returns ErrInfractionNotFound if missing.
func (s *InfractionStore) Read(_ context.Context, id int64) (*types.InfractionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.infractions[id]
	if !ok {
		return nil, types.ErrInfractionNotFound
	}
	return cloneSummary(summary), nil
}

// SearchIDs returns the ids of all matching infractions in ascending order.
func (s *InfractionStore) SearchIDs(_ context.Context, criteria *types.InfractionSearchCriteria) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := query.Chain(s.snapshot(), criteria.SummaryFilters()...)

	ids := make([]int64, 0, len(matched))
	for _, summary := range matched {
		ids = append(ids, summary.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

// SearchSummaries returns copies of all matching summaries sorted by the given keys.
func (s *InfractionStore) SearchSummaries(
	_ context.Context, criteria *types.InfractionSearchCriteria, sorting []query.SortKey[types.InfractionSortProperty],
) ([]*types.InfractionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := query.Chain(s.snapshot(), criteria.SummaryFilters()...).SortBy(comparators(sorting)...)
	return cloneAll(matched), nil
}

// SearchSummariesPaged returns one page of matching summaries plus the total and
// filtered counts, all computed under a single read lock.
func (s *InfractionStore) SearchSummariesPaged(
	_ context.Context, criteria *types.InfractionSearchCriteria,
	sorting []query.SortKey[types.InfractionSortProperty], paging query.PagingCriteria,
) (*query.RecordsPage[*types.InfractionSummary], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.snapshot()
	matched := query.Chain(all, criteria.SummaryFilters()...)

	return &query.RecordsPage[*types.InfractionSummary]{
		TotalRecordCount:    int64(len(all)),
		FilteredRecordCount: int64(len(matched)),
		Records:             cloneAll(matched.SortBy(comparators(sorting)...).Page(paging)),
	}, nil
}

// AppendAction attaches a rescind or delete action. Returns false if the
// infraction is missing or already carries that action.
func (s *InfractionStore) AppendAction(
	_ context.Context, id int64, actionType enum.ModerationActionType, actorID int64, at time.Time,
) (bool, error) {
	if actionType != enum.ModerationActionTypeInfractionRescinded &&
		actionType != enum.ModerationActionTypeInfractionDeleted {
		return false, fmt.Errorf("%w: %s", types.ErrActionNotAppendable, actionType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.infractions[id]
	if !ok {
		return false, nil
	}

	slot := &current.RescindAction
	if actionType == enum.ModerationActionTypeInfractionDeleted {
		slot = &current.DeleteAction
	}
	if *slot != nil {
		return false, nil
	}

	s.nextAction++
	*slot = &types.ModerationActionBrief{
		ID:          s.nextAction,
		Created:     at,
		CreatedByID: types.DiscordID(actorID),
	}

	s.logger.Debug("Appended moderation action",
		zap.Int64("infractionID", id),
		zap.String("type", actionType.String()),
		zap.Int64("actorID", actorID))

	return true, nil
}

// Len returns the number of stored infractions.
func (s *InfractionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.infractions)
}

// snapshot lists the stored summaries in id order. Callers must hold the lock
// and must not mutate the returned records.
func (s *InfractionStore) snapshot() query.Slice[*types.InfractionSummary] {
	ids := slices.Sorted(maps.Keys(s.infractions))
	out := make(query.Slice[*types.InfractionSummary], 0, len(ids))
	for _, id := range ids {
		out = append(out, s.infractions[id])
	}
	return out
}

func comparators(sorting []query.SortKey[types.InfractionSortProperty]) []query.Comparator[*types.InfractionSummary] {
	cmps := make([]query.Comparator[*types.InfractionSummary], 0, len(sorting))
	for _, key := range sorting {
		cmps = append(cmps, key.Key.Compare.In(key.Direction))
	}
	return cmps
}

func cloneAll(in []*types.InfractionSummary) []*types.InfractionSummary {
	out := make([]*types.InfractionSummary, 0, len(in))
	for _, summary := range in {
		out = append(out, cloneSummary(summary))
	}
	return out
}

func cloneSummary(s *types.InfractionSummary) *types.InfractionSummary {
	c := *s
	c.Duration = cloneDuration(s.Duration)
	if s.RescindAction != nil {
		action := *s.RescindAction
		c.RescindAction = &action
	}
	if s.DeleteAction != nil {
		action := *s.DeleteAction
		c.DeleteAction = &action
	}
	return &c
}

func cloneDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
