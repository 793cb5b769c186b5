package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// List devuelve usuarios por fecha de alta ascendente.
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	// Update persiste nombre, rol y estado.
	Update(ctx context.Context, user *entity.User) error
	// Count devuelve la cantidad de usuarios registrados.
	Count(ctx context.Context) (int, error)
	// CountActiveAdmins devuelve cuántos admin activos hay.
	CountActiveAdmins(ctx context.Context) (int, error)
}
