package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

//go:generate mockgen -source=product_repository.go -destination=mocks/product_repository_mock.go -package=mocks

// ProductFilter filtros de listado de productos. Active nil = todos.
type ProductFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// Delete devuelve domain.ErrReferenced si alguna línea de factura lo referencia.
	Delete(ctx context.Context, id string) error
}
