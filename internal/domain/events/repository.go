package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrSlugConflict = errors.New("event with this slug already exists")
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled:
		return true
	}
	return false
}

type BlockType string

const (
	BlockText  BlockType = "TEXT"
	BlockImage BlockType = "IMAGE"
)

// Creator is the public profile of the administrator who owns an event.
type Creator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Description   *string        `json:"description"`
	CoverImage    *string        `json:"coverImage"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	Location      *string        `json:"location"`
	Status        Status         `json:"status"`
	PublishedAt   *time.Time     `json:"publishedAt"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Admin         *Creator       `json:"admin,omitzero"`
	// ContentBlocks is nil on list rows and non-nil on single-event reads.
	ContentBlocks []ContentBlock `json:"contentBlocks,omitzero"`
}

// TextStyle holds optional presentation hints for TEXT blocks.
type TextStyle struct {
	FontSize   string `json:"fontSize,omitempty"`
	FontWeight string `json:"fontWeight,omitempty"`
	TextAlign  string `json:"textAlign,omitempty"`
}

// BlockContent is the type-tagged payload of a content block. TEXT blocks use
// Text and Style, IMAGE blocks use URL, Alt and Caption.
type BlockContent struct {
	Text    string     `json:"text,omitempty"`
	Style   *TextStyle `json:"style,omitempty"`
	URL     string     `json:"url,omitempty"`
	Alt     string     `json:"alt,omitempty"`
	Caption string     `json:"caption,omitempty"`
}

type ContentBlock struct {
	ID         string       `json:"id"`
	EventID    string       `json:"eventId"`
	Type       BlockType    `json:"type"`
	Content    BlockContent `json:"content"`
	OrderIndex int          `json:"orderIndex"`
	CreatedBy  string       `json:"createdBy"`
	CreatedAt  time.Time    `json:"createdAt"`
	// Position is the block's array index in the replacing request. It breaks
	// ties between equal OrderIndex values.
	Position int `json:"-"`
}

// ListFilter selects a page of events. A nil Status matches every status.
type ListFilter struct {
	Status *Status
	Page   int
	Limit  int
}

func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListResult struct {
	Events     []Event    `json:"events"`
	Pagination Pagination `json:"pagination"`
}

// Repository is the event store. Create and Update return ErrSlugConflict
// when the slug is already held by another event. Lookups and Delete return
// ErrNotFound for unknown events. GetByID and GetBySlug include the creator
// and the content blocks ordered by OrderIndex then Position; List includes
// the creator only.
type Repository interface {
	Create(ctx context.Context, event Event) (*Event, error)
	List(ctx context.Context, filter ListFilter) ([]Event, error)
	Count(ctx context.Context, status *Status) (int, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	Update(ctx context.Context, event Event) (*Event, error)
	Delete(ctx context.Context, id string) error
	DeleteContentBlocks(ctx context.Context, eventID string) error
	InsertContentBlock(ctx context.Context, block ContentBlock) (*ContentBlock, error)
	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
