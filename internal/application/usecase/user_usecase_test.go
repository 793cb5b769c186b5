package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/usecase"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, store *memory.Store, email, role string) *entity.User {
	t.Helper()
	now := time.Now()
	u := &entity.User{ID: uuid.NewString(), Email: email, PasswordHash: "x", Name: email,
		Role: role, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestUserUseCase_ListYGet(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users())
	ctx := context.Background()
	admin := seedUser(t, store, "a@example.com", entity.RoleAdmin)
	seedUser(t, store, "b@example.com", entity.RoleFacturador)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "a@example.com", list.Items[0].Email)
	assert.Equal(t, 20, list.Page.Limit)

	got, err := uc.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, got.Role)

	_, err = uc.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserUseCase_Update(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users())
	ctx := context.Background()
	admin := seedUser(t, store, "a@example.com", entity.RoleAdmin)
	op := seedUser(t, store, "b@example.com", entity.RoleFacturador)

	tests := []struct {
		name    string
		id      string
		in      dto.UpdateUserRequest
		wantErr error
	}{
		{"rol desconocido", op.ID, dto.UpdateUserRequest{Role: ptr("vendedor")}, domain.ErrInvalidInput},
		{"estado desconocido", op.ID, dto.UpdateUserRequest{Status: ptr("borrado")}, domain.ErrInvalidInput},
		{"nombre vacío", op.ID, dto.UpdateUserRequest{Name: ptr("  ")}, domain.ErrInvalidInput},
		{"único admin no se degrada", admin.ID, dto.UpdateUserRequest{Role: ptr("facturador")}, domain.ErrInvalidState},
		{"único admin no se desactiva", admin.ID, dto.UpdateUserRequest{Status: ptr("inactive")}, domain.ErrInvalidState},
		{"usuario inexistente", uuid.NewString(), dto.UpdateUserRequest{}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Update(ctx, tt.id, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	promoted, err := uc.Update(ctx, op.ID, dto.UpdateUserRequest{Role: ptr("ADMIN")})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, promoted.Role)

	// con dos admins activos el primero ya puede desactivarse
	demoted, err := uc.Update(ctx, admin.ID, dto.UpdateUserRequest{Status: ptr("inactive")})
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusInactive, demoted.Status)

	stored, err := store.Users().GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusInactive, stored.Status)
	assert.Equal(t, "x", stored.PasswordHash)
}
