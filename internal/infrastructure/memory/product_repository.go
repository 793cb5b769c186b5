package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

type productRow struct {
	entity.Product
	ord int64
}

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	h handle
}

// Create persiste un producto. Code duplicado → ErrDuplicate.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.products[p.ID]; ok || st.productByCode(p.Code, "") != nil {
		return fmt.Errorf("insert product: %w", domain.ErrDuplicate)
	}
	st.products[p.ID] = &productRow{Product: *p, ord: st.nextOrd()}
	return nil
}

// GetByID obtiene un producto por ID; nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.h.lock()()
	if row, ok := r.h.state().products[id]; ok {
		p := row.Product
		return &p, nil
	}
	return nil, nil
}

// GetByCode obtiene un producto por código; nil si no existe.
func (r *ProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	defer r.h.lock()()
	if row := r.h.state().productByCode(code, ""); row != nil {
		p := row.Product
		return &p, nil
	}
	return nil, nil
}

// List lista productos ordenados por nombre.
func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	defer r.h.lock()()
	rows := make([]*productRow, 0, len(r.h.state().products))
	for _, row := range r.h.state().products {
		if f.Active != nil && row.IsActive != *f.Active {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Code < rows[j].Code
	})
	rows = paginate(rows, f.Limit, f.Offset)
	list := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		p := row.Product
		list = append(list, &p)
	}
	return list, nil
}

// Update actualiza el producto.
func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.h.lock()()
	st := r.h.state()
	row, ok := st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if st.productByCode(p.Code, p.ID) != nil {
		return fmt.Errorf("update product: %w", domain.ErrDuplicate)
	}
	row.Product = *p
	return nil
}

// Delete elimina el producto; referenciado por alguna línea → ErrReferenced.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.products[id]; !ok {
		return domain.ErrNotFound
	}
	for _, it := range st.items {
		if it.ProductID == id {
			return fmt.Errorf("delete product: %w", domain.ErrReferenced)
		}
	}
	delete(st.products, id)
	return nil
}

func (st *state) productByCode(code, exceptID string) *productRow {
	for _, row := range st.products {
		if row.Code == code && row.ID != exceptID {
			return row
		}
	}
	return nil
}
