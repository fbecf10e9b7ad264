package memory

import (
	"context"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
)

type AdminRepository struct {
	store *Store
}

var _ admins.Repository = (*AdminRepository)(nil)

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*admins.Admin, error) {
	var (
		found admins.Admin
		ok    bool
	)
	r.store.read(func(st *state) {
		for _, a := range st.admins {
			if strings.EqualFold(a.Email, email) {
				found, ok = a, true
				return
			}
		}
	})
	if !ok {
		return nil, admins.ErrNotFound
	}
	return &found, nil
}

func (r *AdminRepository) GetByID(_ context.Context, id string) (*admins.Admin, error) {
	var (
		found admins.Admin
		ok    bool
	)
	r.store.read(func(st *state) {
		found, ok = st.admins[id]
	})
	if !ok {
		return nil, admins.ErrNotFound
	}
	return &found, nil
}

func (r *AdminRepository) Create(_ context.Context, admin admins.Admin) (*admins.Admin, error) {
	err := r.store.write(func(st *state) error {
		for _, a := range st.admins {
			if strings.EqualFold(a.Email, admin.Email) {
				return admins.ErrEmailTaken
			}
		}
		st.admins[admin.ID] = admin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// SetActive toggles the active flag of an administrator.
func (r *AdminRepository) SetActive(_ context.Context, id string, active bool) error {
	return r.store.write(func(st *state) error {
		a, ok := st.admins[id]
		if !ok {
			return admins.ErrNotFound
		}
		a.IsActive = active
		st.admins[id] = a
		return nil
	})
}
