package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/lock"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxConcurrency bounds bulk operations when no limit is configured.
const DefaultMaxConcurrency = 8

// InfractionStore is a backing store for infractions. Implementations must make
// Insert and AppendAction atomic with respect to every read.
type InfractionStore interface {
	// Exists checks whether any infraction matches the criteria.
	Exists(ctx context.Context, criteria *types.InfractionSearchCriteria) (bool, error)
	// Insert stores a new infraction with its Created action and returns its id.
	Insert(ctx context.Context, data *types.InfractionCreationData) (int64, error)
	// Read returns types.ErrInfractionNotFound when the id is unknown.
	Read(ctx context.Context, id int64) (*types.InfractionSummary, error)
	// SearchIDs returns matching ids in ascending order.
	SearchIDs(ctx context.Context, criteria *types.InfractionSearchCriteria) ([]int64, error)
	SearchSummaries(
		ctx context.Context, criteria *types.InfractionSearchCriteria,
		sorting []query.SortKey[types.InfractionSortProperty],
	) ([]*types.InfractionSummary, error)
	// SearchSummariesPaged computes the counts and the page from one consistent view.
	SearchSummariesPaged(
		ctx context.Context, criteria *types.InfractionSearchCriteria,
		sorting []query.SortKey[types.InfractionSortProperty], paging query.PagingCriteria,
	) (*query.RecordsPage[*types.InfractionSummary], error)
	// AppendAction attaches a rescind or delete action only if none is attached yet.
	AppendAction(
		ctx context.Context, id int64, actionType enum.ModerationActionType, actorID int64, at time.Time,
	) (bool, error)
}

// InfractionOptions tunes an InfractionService.
type InfractionOptions struct {
	// MaxPageSize rejects larger pages when positive.
	MaxPageSize int
	// MaxConcurrency bounds RescindMatching.
	MaxConcurrency int
	// Now is the clock used for rescind and delete timestamps.
	Now func() time.Time
}

// InfractionService validates requests and serializes infraction creation.
type InfractionService struct {
	store          InfractionStore
	locker         lock.Locker
	maxPageSize    int
	maxConcurrency int
	now            func() time.Time
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewInfraction creates a new infraction service. Every service that must not
// create duplicates of each other's infractions has to share the same locker.
func NewInfraction(
	store InfractionStore, locker lock.Locker, opts InfractionOptions, logger *zap.Logger,
) *InfractionService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &InfractionService{
		store:          store,
		locker:         locker,
		maxPageSize:    opts.MaxPageSize,
		maxConcurrency: opts.MaxConcurrency,
		now:            opts.Now,
		tracer:         otel.Tracer("github.com/robalyx/warden/internal/database/service"),
		logger:         logger.Named("infraction_service"),
	}
}

// TryCreate creates an infraction unless one matching dedup already exists.
// The duplicate check and the insert run inside the creation lock, so among
// concurrent callers with the same dedup criteria at most one creates.
// A nil dedup skips the check. Returns created == false for a duplicate.
func (s *InfractionService) TryCreate(
	ctx context.Context, data *types.InfractionCreationData, dedup *types.InfractionSearchCriteria,
) (int64, bool, error) {
	if err := data.Validate(); err != nil {
		return 0, false, err
	}
	if err := dedup.Validate(); err != nil {
		return 0, false, fmt.Errorf("dedup criteria: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "InfractionService.TryCreate", trace.WithAttributes(
		attribute.String("guild_id", data.GuildID.String()),
		attribute.String("subject_id", data.SubjectID.String()),
		attribute.String("type", data.Type.String()),
		attribute.Bool("dedup", dedup != nil),
	))
	defer span.End()

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return 0, false, s.fail(span, fmt.Errorf("failed to acquire creation lock: %w", err))
	}
	defer unlock()

	if dedup != nil {
		exists, err := s.store.Exists(ctx, dedup)
		if err != nil {
			return 0, false, s.fail(span, fmt.Errorf("failed to check for duplicate infraction: %w", err))
		}
		if exists {
			s.logger.Debug("Skipped duplicate infraction",
				zap.Uint64("guildID", uint64(data.GuildID)),
				zap.Uint64("subjectID", uint64(data.SubjectID)),
				zap.String("type", data.Type.String()))
			span.SetAttributes(attribute.Bool("created", false))
			return 0, false, nil
		}
	}

	id, err := s.store.Insert(ctx, data)
	if err != nil {
		return 0, false, s.fail(span, fmt.Errorf("failed to create infraction: %w", err))
	}

	span.SetAttributes(attribute.Bool("created", true), attribute.Int64("infraction_id", id))
	s.logger.Info("Created infraction",
		zap.Int64("id", id),
		zap.Uint64("guildID", uint64(data.GuildID)),
		zap.Uint64("subjectID", uint64(data.SubjectID)),
		zap.String("type", data.Type.String()))

	return id, true, nil
}

// Read returns the summary of an infraction, or nil if it does not exist.
func (s *InfractionService) Read(ctx context.Context, id int64) (*types.InfractionSummary, error) {
	summary, err := s.store.Read(ctx, id)
	if errors.Is(err, types.ErrInfractionNotFound) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read infraction %d: %w", id, err)
	}
	return summary, nil
}

// SearchIDs returns the ids of all infractions matching the criteria in ascending order.
func (s *InfractionService) SearchIDs(ctx context.Context, criteria *types.InfractionSearchCriteria) ([]int64, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	ids, err := s.store.SearchIDs(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search infraction ids: %w", err)
	}
	return ids, nil
}

// SearchSummaries returns every matching summary ordered by sorting. Ties left
// by the requested keys are broken by ascending id.
func (s *InfractionService) SearchSummaries(
	ctx context.Context, criteria *types.InfractionSearchCriteria, sorting []query.SortingCriteria,
) ([]*types.InfractionSummary, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	keys, err := resolveSorting(sorting)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "InfractionService.SearchSummaries")
	defer span.End()

	summaries, err := s.store.SearchSummaries(ctx, criteria, keys)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to search infractions: %w", err))
	}

	span.SetAttributes(attribute.Int("results", len(summaries)))
	return summaries, nil
}

// SearchSummariesPaged returns one page of matching summaries with the total and
// filtered record counts. Ties are always broken by ascending id so consecutive
// pages neither overlap nor skip records.
func (s *InfractionService) SearchSummariesPaged(
	ctx context.Context, criteria *types.InfractionSearchCriteria,
	sorting []query.SortingCriteria, paging query.PagingCriteria,
) (*query.RecordsPage[*types.InfractionSummary], error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	keys, err := resolveSorting(sorting)
	if err != nil {
		return nil, err
	}

	if err := paging.Validate(); err != nil {
		return nil, err
	}
	if s.maxPageSize > 0 && paging.PageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size %d exceeds %d", query.ErrInvalidPaging, paging.PageSize, s.maxPageSize)
	}

	ctx, span := s.tracer.Start(ctx, "InfractionService.SearchSummariesPaged", trace.WithAttributes(
		attribute.Int("first_record_index", paging.FirstRecordIndex),
		attribute.Int("page_size", paging.PageSize),
	))
	defer span.End()

	page, err := s.store.SearchSummariesPaged(ctx, criteria, keys, paging)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to page infractions: %w", err))
	}

	span.SetAttributes(
		attribute.Int64("total", page.TotalRecordCount),
		attribute.Int64("filtered", page.FilteredRecordCount),
	)
	return page, nil
}

// TryRescind attaches a rescind action. Returns false if the infraction does
// not exist or has already been rescinded.
func (s *InfractionService) TryRescind(ctx context.Context, id int64, actor snowflake.ID) (bool, error) {
	return s.appendAction(ctx, id, enum.ModerationActionTypeInfractionRescinded, actor)
}

// TryDelete attaches a delete action. Returns false if the infraction does
// not exist or has already been deleted.
func (s *InfractionService) TryDelete(ctx context.Context, id int64, actor snowflake.ID) (bool, error) {
	return s.appendAction(ctx, id, enum.ModerationActionTypeInfractionDeleted, actor)
}

// RescindMatching rescinds every matching infraction that is neither rescinded
// nor deleted and returns how many it rescinded. Infractions rescinded
// concurrently by someone else are not counted.
func (s *InfractionService) RescindMatching(
	ctx context.Context, criteria *types.InfractionSearchCriteria, actor snowflake.ID,
) (int, error) {
	if err := criteria.Validate(); err != nil {
		return 0, err
	}
	if _, err := types.StorageID(actor); err != nil {
		return 0, err
	}

	active := types.InfractionSearchCriteria{}
	if criteria != nil {
		active = *criteria
	}
	notSet := false
	active.IsRescinded = &notSet
	active.IsDeleted = &notSet

	ctx, span := s.tracer.Start(ctx, "InfractionService.RescindMatching")
	defer span.End()

	ids, err := s.store.SearchIDs(ctx, &active)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("failed to search infractions to rescind: %w", err))
	}

	var (
		rescinded atomic.Int64
		p         = pool.New().WithContext(ctx).WithMaxGoroutines(s.maxConcurrency)
	)

	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			ok, err := s.appendAction(ctx, id, enum.ModerationActionTypeInfractionRescinded, actor)
			if err != nil {
				s.logger.Error("Failed to rescind infraction",
					zap.Int64("id", id),
					zap.Error(err))
				return err
			}
			if ok {
				rescinded.Add(1)
			}
			return nil
		})
	}

	err = p.Wait()
	count := int(rescinded.Load())
	span.SetAttributes(attribute.Int("matched", len(ids)), attribute.Int("rescinded", count))
	if err != nil {
		return count, s.fail(span, fmt.Errorf("failed to rescind matching infractions: %w", err))
	}

	s.logger.Info("Rescinded matching infractions",
		zap.Int("matched", len(ids)),
		zap.Int("rescinded", count),
		zap.Uint64("actorID", uint64(actor)))

	return count, nil
}

func (s *InfractionService) appendAction(
	ctx context.Context, id int64, actionType enum.ModerationActionType, actor snowflake.ID,
) (bool, error) {
	actorID, err := types.StorageID(actor)
	if err != nil {
		return false, err
	}

	ok, err := s.store.AppendAction(ctx, id, actionType, actorID, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to append %s action to infraction %d: %w", actionType, id, err)
	}
	return ok, nil
}

func (s *InfractionService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// resolveSorting maps the requested sort names to keys and appends the id tie-break.
func resolveSorting(sorting []query.SortingCriteria) ([]query.SortKey[types.InfractionSortProperty], error) {
	keys, err := types.InfractionSortProperties.Resolve(sorting)
	if err != nil {
		return nil, err
	}
	return append(keys, types.IDTieBreak), nil
}
