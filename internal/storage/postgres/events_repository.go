package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ events.Repository = (*EventRepository)(nil)

const eventSelect = `
SELECT e.id, e.title, e.slug, e.description, e.cover_image, e.start_time, e.end_time,
       e.location, e.status, e.published_at, e.created_by, e.created_at, e.updated_at,
       a.id, a.name, a.email`

const blockColumns = `id, event_id, type, content, order_index, input_position, created_by, created_at`

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &EventRepository{pool: r.pool, tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
WITH e AS (
    INSERT INTO events (id, title, slug, description, cover_image, start_time, end_time,
                        location, status, published_at, created_by, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    RETURNING *
)`+eventSelect+`
  FROM e
  JOIN admins a ON a.id = e.created_by`,
		event.ID, event.Title, event.Slug, event.Description, event.CoverImage,
		event.StartTime, event.EndTime, event.Location, string(event.Status), event.PublishedAt,
		event.CreatedBy, event.CreatedAt, event.UpdatedAt,
	)
	created, err := scanEvent(row)
	if err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

func (r *EventRepository) List(ctx context.Context, filter events.ListFilter) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, eventSelect+`
  FROM events e
  JOIN admins a ON a.id = e.created_by
 WHERE ($1::text IS NULL OR e.status = $1)
 ORDER BY e.start_time DESC, e.id DESC
 LIMIT $2 OFFSET $3`,
		statusParam(filter.Status), filter.Limit, filter.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (r *EventRepository) Count(ctx context.Context, status *events.Status) (int, error) {
	var n int
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM events WHERE ($1::text IS NULL OR status = $1)`,
		statusParam(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	return r.getOne(ctx, `e.id = $1`, id)
}

func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*events.Event, error) {
	return r.getOne(ctx, `e.slug = $1`, slug)
}

func (r *EventRepository) getOne(ctx context.Context, where string, arg string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, eventSelect+`
  FROM events e
  JOIN admins a ON a.id = e.created_by
 WHERE `+where, arg)
	event, err := scanEvent(row)
	if err != nil {
		return nil, err
	}

	blocks, err := r.listBlocks(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.ContentBlocks = blocks
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event events.Event) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
WITH e AS (
    UPDATE events
       SET title = $2, slug = $3, description = $4, cover_image = $5, start_time = $6,
           end_time = $7, location = $8, status = $9, published_at = $10, updated_at = $11
     WHERE id = $1
    RETURNING *
)`+eventSelect+`
  FROM e
  JOIN admins a ON a.id = e.created_by`,
		event.ID, event.Title, event.Slug, event.Description, event.CoverImage, event.StartTime,
		event.EndTime, event.Location, string(event.Status), event.PublishedAt, event.UpdatedAt,
	)
	updated, err := scanEvent(row)
	if err != nil {
		return nil, translateError(err)
	}
	return updated, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) DeleteContentBlocks(ctx context.Context, eventID string) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM content_blocks WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete content blocks: %w", err)
	}
	return nil
}

func (r *EventRepository) InsertContentBlock(ctx context.Context, block events.ContentBlock) (*events.ContentBlock, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO content_blocks (id, event_id, type, content, order_index, input_position, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+blockColumns,
		block.ID, block.EventID, string(block.Type), block.Content, block.OrderIndex, block.Position,
		block.CreatedBy, block.CreatedAt,
	)
	created, err := scanBlock(row)
	if err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

func (r *EventRepository) listBlocks(ctx context.Context, eventID string) ([]events.ContentBlock, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+blockColumns+`
  FROM content_blocks
 WHERE event_id = $1
 ORDER BY order_index ASC, input_position ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list content blocks: %w", err)
	}
	defer rows.Close()

	out := []events.ContentBlock{}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content blocks: %w", err)
	}
	return out, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		e       events.Event
		status  string
		creator events.Creator
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.CoverImage, &e.StartTime, &e.EndTime,
		&e.Location, &status, &e.PublishedAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&creator.ID, &creator.Name, &creator.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.Status = events.Status(status)
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.PublishedAt != nil {
		published := e.PublishedAt.UTC()
		e.PublishedAt = &published
	}
	e.Admin = &creator
	return &e, nil
}

func scanBlock(row pgx.Row) (*events.ContentBlock, error) {
	var (
		b   events.ContentBlock
		typ string
	)
	if err := row.Scan(&b.ID, &b.EventID, &typ, &b.Content, &b.OrderIndex, &b.Position, &b.CreatedBy, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan content block: %w", err)
	}
	b.Type = events.BlockType(typ)
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func statusParam(status *events.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
