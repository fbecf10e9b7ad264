package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service owns the event and content-block lifecycle.
type Service struct {
	repo   Repository
	newID  ids.Generator
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(gen ids.Generator) Option {
	return func(s *Service) { s.newID = gen }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger.With().Str("component", "events").Logger() }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		newID:  ids.NewULID,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent stores a new DRAFT event owned by createdBy.
func (s *Service) CreateEvent(ctx context.Context, params CreateEventParams, createdBy string) (*Event, error) {
	if err := checkTimeOrder(params.StartTime, params.EndTime); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetBySlug(ctx, params.Slug); err == nil {
		return nil, ErrSlugConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	now := s.timestamp()

	created, err := s.repo.Create(ctx, Event{
		ID:          id,
		Title:       params.Title,
		Slug:        params.Slug,
		Description: params.Description,
		CoverImage:  params.CoverImage,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Location:    params.Location,
		Status:      StatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", created.ID).Str("slug", created.Slug).Msg("event created")
	return created, nil
}

// GetEvents returns one page of events ordered by start time descending.
func (s *Service) GetEvents(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = DefaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultLimit
	}

	var (
		rows  []Event
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.List(gctx, filter)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter.Status)
		if err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Event{}
	}

	return &ListResult{
		Events: rows,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: (total + filter.Limit - 1) / filter.Limit,
		},
	}, nil
}

func (s *Service) GetEventByID(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetEventBySlug(ctx context.Context, slug string) (*Event, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// UpdateEvent applies a partial update. publishedAt is stamped the first time
// the event becomes PUBLISHED and is never cleared afterwards.
func (s *Service) UpdateEvent(ctx context.Context, id string, params UpdateEventParams) (*Event, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Slug != nil && *params.Slug != existing.Slug {
		holder, err := s.repo.GetBySlug(ctx, *params.Slug)
		switch {
		case err == nil && holder.ID != existing.ID:
			return nil, ErrSlugConflict
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("check slug: %w", err)
		}
	}

	updated := applyUpdate(*existing, params)
	if err := checkTimeOrder(updated.StartTime, updated.EndTime); err != nil {
		return nil, err
	}

	now := s.timestamp()
	if updated.Status == StatusPublished && updated.PublishedAt == nil {
		updated.PublishedAt = &now
	}
	updated.UpdatedAt = now

	if _, err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	if existing.Status != updated.Status {
		s.logger.Info().
			Str("event_id", id).
			Str("from", string(existing.Status)).
			Str("to", string(updated.Status)).
			Msg("event status changed")
	}
	return s.repo.GetByID(ctx, id)
}

// DeleteEvent removes the event together with its content blocks.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// UpdateContentBlocks replaces every content block of the event in a single
// transaction. The returned blocks keep the order of the input.
func (s *Service) UpdateContentBlocks(ctx context.Context, eventID string, blocks []ContentBlockParams, updatedBy string) ([]ContentBlock, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	pending := make([]ContentBlock, 0, len(blocks))
	now := s.timestamp()
	for i, block := range blocks {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		pending = append(pending, ContentBlock{
			ID:         id,
			EventID:    eventID,
			Type:       block.Type,
			Content:    block.Content,
			OrderIndex: block.OrderIndex,
			CreatedBy:  updatedBy,
			CreatedAt:  now,
			Position:   i,
		})
	}

	var saved []ContentBlock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.DeleteContentBlocks(ctx, eventID); err != nil {
			return fmt.Errorf("delete content blocks: %w", err)
		}
		saved = make([]ContentBlock, 0, len(pending))
		for _, block := range pending {
			created, err := tx.InsertContentBlock(ctx, block)
			if err != nil {
				return fmt.Errorf("insert content block %d: %w", block.Position, err)
			}
			saved = append(saved, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", eventID).Int("blocks", len(saved)).Msg("content blocks replaced")
	return saved, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func applyUpdate(event Event, params UpdateEventParams) Event {
	if params.Title != nil {
		event.Title = *params.Title
	}
	if params.Slug != nil {
		event.Slug = *params.Slug
	}
	if params.Description != nil {
		event.Description = emptyToNil(params.Description)
	}
	if params.CoverImage != nil {
		event.CoverImage = emptyToNil(params.CoverImage)
	}
	if params.StartTime != nil {
		event.StartTime = *params.StartTime
	}
	if params.EndTime != nil {
		event.EndTime = *params.EndTime
	}
	if params.Location != nil {
		event.Location = emptyToNil(params.Location)
	}
	if params.Status != nil {
		event.Status = *params.Status
	}
	event.Admin = nil
	event.ContentBlocks = nil
	return event
}
