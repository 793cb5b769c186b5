package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

//go:generate mockgen -source=client_repository.go -destination=mocks/client_repository_mock.go -package=mocks

// ClientFilter filtros de listado de clientes. Active nil = todos.
type ClientFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// ClientRepository define el puerto de persistencia para Client.
// La unicidad de TaxID y el bloqueo del borrado con facturas asociadas los garantiza el almacenamiento.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	// Delete devuelve domain.ErrReferenced si el cliente tiene facturas.
	Delete(ctx context.Context, id string) error
}
