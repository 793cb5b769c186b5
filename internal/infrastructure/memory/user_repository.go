package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userRow struct {
	entity.User
	ord int64
}

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	h handle
}

// Create persiste un usuario. Email duplicado → ErrEmailAlreadyExists.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.h.lock()()
	st := r.h.state()
	for _, row := range st.users {
		if strings.EqualFold(row.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	st.users[u.ID] = &userRow{User: *u, ord: st.nextOrd()}
	return nil
}

// GetByID obtiene un usuario por ID; nil si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.h.lock()()
	if row, ok := r.h.state().users[id]; ok {
		u := row.User
		return &u, nil
	}
	return nil, nil
}

// GetByEmail obtiene un usuario por email; nil si no existe.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.h.lock()()
	for _, row := range r.h.state().users {
		if strings.EqualFold(row.Email, email) {
			u := row.User
			return &u, nil
		}
	}
	return nil, nil
}

// Count devuelve la cantidad de usuarios.
func (r *UserRepo) Count(_ context.Context) (int, error) {
	defer r.h.lock()()
	return len(r.h.state().users), nil
}

// List lista usuarios en orden de alta.
func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	defer r.h.lock()()
	rows := make([]*userRow, 0, len(r.h.state().users))
	for _, row := range r.h.state().users {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ord < rows[j].ord })
	rows = paginate(rows, limit, offset)
	list := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		u := row.User
		list = append(list, &u)
	}
	return list, nil
}

// Update reemplaza nombre, rol y estado.
func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	defer r.h.lock()()
	row, ok := r.h.state().users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Name, row.Role, row.Status, row.UpdatedAt = u.Name, u.Role, u.Status, u.UpdatedAt
	return nil
}

// CountActiveAdmins cuenta los admin con estado active.
func (r *UserRepo) CountActiveAdmins(_ context.Context) (int, error) {
	defer r.h.lock()()
	n := 0
	for _, row := range r.h.state().users {
		if row.Role == entity.RoleAdmin && row.Status == entity.UserStatusActive {
			n++
		}
	}
	return n, nil
}
