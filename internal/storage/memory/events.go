package memory

import (
	"context"
	"sort"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

// EventRepository works on the live state, or on a transaction's draft
// when tx is set.
type EventRepository struct {
	store *Store
	tx    *state
}

var _ events.Repository = (*EventRepository)(nil)

func (r *EventRepository) view(fn func(st *state)) {
	if r.tx != nil {
		fn(r.tx)
		return
	}
	r.store.read(fn)
}

func (r *EventRepository) mutate(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.write(fn)
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	return r.store.transact(func(draft *state) error {
		return fn(ctx, &EventRepository{store: r.store, tx: draft})
	})
}

func (r *EventRepository) Create(_ context.Context, event events.Event) (*events.Event, error) {
	var out events.Event
	err := r.mutate(func(st *state) error {
		if err := checkEvent(st, event); err != nil {
			return err
		}
		event.Admin = nil
		event.ContentBlocks = nil
		st.events[event.ID] = event
		out = withCreator(st, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EventRepository) List(_ context.Context, filter events.ListFilter) ([]events.Event, error) {
	var out []events.Event
	r.view(func(st *state) {
		matched := matching(st, filter.Status)
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].StartTime.Equal(matched[j].StartTime) {
				return matched[i].StartTime.After(matched[j].StartTime)
			}
			return matched[i].ID > matched[j].ID
		})
		offset := filter.Offset()
		if offset >= len(matched) {
			out = []events.Event{}
			return
		}
		end := len(matched)
		if filter.Limit > 0 && offset+filter.Limit < end {
			end = offset + filter.Limit
		}
		out = make([]events.Event, 0, end-offset)
		for _, e := range matched[offset:end] {
			out = append(out, withCreator(st, e))
		}
	})
	return out, nil
}

func (r *EventRepository) Count(_ context.Context, status *events.Status) (int, error) {
	var n int
	r.view(func(st *state) {
		n = len(matching(st, status))
	})
	return n, nil
}

func (r *EventRepository) GetByID(_ context.Context, id string) (*events.Event, error) {
	var (
		out events.Event
		ok  bool
	)
	r.view(func(st *state) {
		var e events.Event
		if e, ok = st.events[id]; ok {
			out = detailed(st, e)
		}
	})
	if !ok {
		return nil, events.ErrNotFound
	}
	return &out, nil
}

func (r *EventRepository) GetBySlug(_ context.Context, slug string) (*events.Event, error) {
	var (
		out events.Event
		ok  bool
	)
	r.view(func(st *state) {
		for _, e := range st.events {
			if e.Slug == slug {
				out, ok = detailed(st, e), true
				return
			}
		}
	})
	if !ok {
		return nil, events.ErrNotFound
	}
	return &out, nil
}

func (r *EventRepository) Update(_ context.Context, event events.Event) (*events.Event, error) {
	var out events.Event
	err := r.mutate(func(st *state) error {
		existing, ok := st.events[event.ID]
		if !ok {
			return events.ErrNotFound
		}
		if err := checkEvent(st, event); err != nil {
			return err
		}
		event.CreatedBy = existing.CreatedBy
		event.CreatedAt = existing.CreatedAt
		event.Admin = nil
		event.ContentBlocks = nil
		st.events[event.ID] = event
		out = withCreator(st, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EventRepository) Delete(_ context.Context, id string) error {
	return r.mutate(func(st *state) error {
		if _, ok := st.events[id]; !ok {
			return events.ErrNotFound
		}
		delete(st.events, id)
		delete(st.blocks, id)
		return nil
	})
}

func (r *EventRepository) DeleteContentBlocks(_ context.Context, eventID string) error {
	return r.mutate(func(st *state) error {
		delete(st.blocks, eventID)
		return nil
	})
}

func (r *EventRepository) InsertContentBlock(_ context.Context, block events.ContentBlock) (*events.ContentBlock, error) {
	err := r.mutate(func(st *state) error {
		if _, ok := st.events[block.EventID]; !ok {
			return events.ErrNotFound
		}
		if block.OrderIndex < 0 {
			return validation.NewError("orderIndex", "Order index must be non-negative")
		}
		st.blocks[block.EventID] = append(st.blocks[block.EventID], block)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// BlockCount reports how many content blocks are stored for eventID,
// including blocks of events that no longer exist.
func (r *EventRepository) BlockCount(eventID string) int {
	var n int
	r.view(func(st *state) {
		n = len(st.blocks[eventID])
	})
	return n
}

func checkEvent(st *state, event events.Event) error {
	if !event.EndTime.After(event.StartTime) {
		return validation.NewError("endTime", "End time must be after start time")
	}
	for id, other := range st.events {
		if id != event.ID && other.Slug == event.Slug {
			return events.ErrSlugConflict
		}
	}
	return nil
}

func matching(st *state, status *events.Status) []events.Event {
	out := make([]events.Event, 0, len(st.events))
	for _, e := range st.events {
		if status == nil || e.Status == *status {
			out = append(out, e)
		}
	}
	return out
}

func withCreator(st *state, e events.Event) events.Event {
	if a, ok := st.admins[e.CreatedBy]; ok {
		e.Admin = &events.Creator{ID: a.ID, Name: a.Name, Email: a.Email}
	}
	return e
}

func detailed(st *state, e events.Event) events.Event {
	e = withCreator(st, e)
	blocks := append([]events.ContentBlock{}, st.blocks[e.ID]...)
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].OrderIndex != blocks[j].OrderIndex {
			return blocks[i].OrderIndex < blocks[j].OrderIndex
		}
		return blocks[i].Position < blocks[j].Position
	})
	e.ContentBlocks = blocks
	return e
}
