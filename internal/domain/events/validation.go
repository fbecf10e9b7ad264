package events

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

const timeLayout = time.RFC3339

// CreateEventInput is the request body for creating an event. Any status
// field supplied by the client is ignored.
type CreateEventInput struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Slug        string  `json:"slug" validate:"required,slug"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	CoverImage  *string `json:"coverImage" validate:"omitempty,httpurl"`
	StartTime   string  `json:"startTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     string  `json:"endTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
}

// UpdateEventInput is a partial update. Nil fields are left untouched and an
// empty string clears an optional field.
type UpdateEventInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Slug        *string `json:"slug" validate:"omitnil,slug"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	CoverImage  *string `json:"coverImage" validate:"omitnil,httpurl"`
	StartTime   *string `json:"startTime" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     *string `json:"endTime" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	Location    *string `json:"location" validate:"omitnil,max=200"`
	Status      *string `json:"status" validate:"omitnil,oneof=DRAFT PUBLISHED CANCELLED"`
}

type TextStyleInput struct {
	FontSize   string `json:"fontSize" validate:"max=50"`
	FontWeight string `json:"fontWeight" validate:"max=50"`
	TextAlign  string `json:"textAlign" validate:"max=50"`
}

type BlockContentInput struct {
	Text    string          `json:"text"`
	Style   *TextStyleInput `json:"style"`
	URL     string          `json:"url" validate:"omitempty,httpurl"`
	Alt     string          `json:"alt"`
	Caption string          `json:"caption"`
}

type ContentBlockInput struct {
	Type       string            `json:"type" validate:"required,oneof=TEXT IMAGE"`
	Content    BlockContentInput `json:"content"`
	OrderIndex *int              `json:"orderIndex" validate:"required,min=0"`
}

type ReplaceContentBlocksInput struct {
	Blocks []ContentBlockInput `json:"blocks" validate:"required,dive"`
}

// CreateEventParams is validated input for Service.CreateEvent.
type CreateEventParams struct {
	Title       string
	Slug        string
	Description *string
	CoverImage  *string
	StartTime   time.Time
	EndTime     time.Time
	Location    *string
}

// UpdateEventParams carries only the fields being changed. A non-nil pointer
// to an empty string clears an optional field.
type UpdateEventParams struct {
	Title       *string
	Slug        *string
	Description *string
	CoverImage  *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	Status      *Status
}

type ContentBlockParams struct {
	Type       BlockType
	Content    BlockContent
	OrderIndex int
}

// Parse sanitizes and validates the input.
func (in CreateEventInput) Parse(v *validation.Validator) (CreateEventParams, error) {
	in.Title = sanitize.Text(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = emptyToNil(in.Description)
	in.CoverImage = emptyToNil(trimmed(in.CoverImage))
	in.Location = emptyToNil(sanitize.OptionalText(in.Location))

	if err := v.Struct(in); err != nil {
		return CreateEventParams{}, err
	}

	start, _ := time.Parse(timeLayout, in.StartTime)
	end, _ := time.Parse(timeLayout, in.EndTime)
	if err := checkTimeOrder(start, end); err != nil {
		return CreateEventParams{}, err
	}

	return CreateEventParams{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Location:    in.Location,
	}, nil
}

// Parse sanitizes and validates the input. The ordering of start and end is
// checked by the service against the merged event.
func (in UpdateEventInput) Parse(v *validation.Validator) (UpdateEventParams, error) {
	if in.Title != nil {
		title := sanitize.Text(*in.Title)
		in.Title = &title
	}
	in.Slug = trimmed(in.Slug)
	in.CoverImage = trimmed(in.CoverImage)
	in.Location = sanitize.OptionalText(in.Location)

	clearCover := in.CoverImage != nil && *in.CoverImage == ""
	if clearCover {
		in.CoverImage = nil
	}

	if err := v.Struct(in); err != nil {
		return UpdateEventParams{}, err
	}

	params := UpdateEventParams{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		Location:    in.Location,
	}
	if clearCover {
		empty := ""
		params.CoverImage = &empty
	}
	if in.StartTime != nil {
		start, _ := time.Parse(timeLayout, *in.StartTime)
		start = start.UTC()
		params.StartTime = &start
	}
	if in.EndTime != nil {
		end, _ := time.Parse(timeLayout, *in.EndTime)
		end = end.UTC()
		params.EndTime = &end
	}
	if in.Status != nil {
		status := Status(*in.Status)
		params.Status = &status
	}
	return params, nil
}

// Parse validates every block. TEXT blocks need text and IMAGE blocks need a url.
func (in ReplaceContentBlocksInput) Parse(v *validation.Validator) ([]ContentBlockParams, error) {
	if err := v.Struct(in); err != nil {
		return nil, err
	}

	out := make([]ContentBlockParams, 0, len(in.Blocks))
	verr := &validation.Error{}
	for i, block := range in.Blocks {
		content := BlockContent{
			Text:    block.Content.Text,
			URL:     strings.TrimSpace(block.Content.URL),
			Alt:     sanitize.Text(block.Content.Alt),
			Caption: block.Content.Caption,
		}
		if s := block.Content.Style; s != nil {
			content.Style = &TextStyle{FontSize: s.FontSize, FontWeight: s.FontWeight, TextAlign: s.TextAlign}
		}

		typ := BlockType(block.Type)
		switch typ {
		case BlockText:
			if strings.TrimSpace(content.Text) == "" {
				verr.Fields = append(verr.Fields, validation.FieldError{
					Field:   fmt.Sprintf("blocks[%d].content.text", i),
					Message: "Text blocks require text",
				})
			}
		case BlockImage:
			if content.URL == "" {
				verr.Fields = append(verr.Fields, validation.FieldError{
					Field:   fmt.Sprintf("blocks[%d].content.url", i),
					Message: "Image blocks require a url",
				})
			}
		}

		out = append(out, ContentBlockParams{Type: typ, Content: content, OrderIndex: *block.OrderIndex})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return out, nil
}

// ParseListFilter reads status, page and limit from a query string.
func ParseListFilter(values url.Values) (ListFilter, error) {
	filter := ListFilter{Page: DefaultPage, Limit: DefaultLimit}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status := Status(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, validation.NewError("status", "status must be one of: DRAFT, PUBLISHED, CANCELLED")
		}
		filter.Status = &status
	}

	page, err := parsePositive("page", values.Get("page"), DefaultPage)
	if err != nil {
		return filter, err
	}
	limit, err := parsePositive("limit", values.Get("limit"), DefaultLimit)
	if err != nil {
		return filter, err
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	filter.Page = page
	filter.Limit = limit
	return filter, nil
}

func parsePositive(field, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, validation.NewError(field, field+" must be a positive integer")
	}
	return n, nil
}

func checkTimeOrder(start, end time.Time) error {
	if !end.After(start) {
		return validation.NewError("endTime", "End time must be after start time")
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}

func emptyToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
