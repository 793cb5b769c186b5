package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-api/pkg/jwt"
)

const secret = "test-secret"

func newUseCase() *auth.AuthUseCase {
	store := memory.NewStore()
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"})
}

func TestRegisterUser_PrimeroAdminLuegoFacturador(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	first, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "Admin@Example.com", Password: "supersecreto"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, first.Role)
	assert.Equal(t, "admin@example.com", first.Email)

	second, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "op@example.com", Password: "supersecreto", Name: "Operador"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleFacturador, second.Role)
	assert.Equal(t, "Operador", second.Name)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "op@example.com", Password: "supersecreto"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterUser_Validaciones(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "no-es-email", Password: "supersecreto"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	user, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "supersecreto"})
	require.NoError(t, err)

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "A@B.com", Password: "supersecreto"})
	require.NoError(t, err)
	userID, role, err := jwt.Parse(secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, entity.RoleAdmin, role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "a@b.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "x@b.com", Password: "supersecreto"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
