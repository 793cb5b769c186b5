package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

type clientRow struct {
	entity.Client
	ord int64
}

// ClientRepo implementación en memoria de ClientRepository.
type ClientRepo struct {
	h handle
}

// Create persiste un nuevo cliente. TaxID duplicado → ErrDuplicate.
func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.clients[c.ID]; ok {
		return fmt.Errorf("insert client: %w", domain.ErrDuplicate)
	}
	if st.clientByTaxID(c.TaxID, "") != nil {
		return fmt.Errorf("insert client: %w", domain.ErrDuplicate)
	}
	st.clients[c.ID] = &clientRow{Client: *c, ord: st.nextOrd()}
	return nil
}

// GetByID obtiene un cliente por ID; nil si no existe.
func (r *ClientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	defer r.h.lock()()
	if row, ok := r.h.state().clients[id]; ok {
		c := row.Client
		return &c, nil
	}
	return nil, nil
}

// GetByTaxID obtiene un cliente por CUIT/DNI; nil si no existe.
func (r *ClientRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Client, error) {
	defer r.h.lock()()
	if row := r.h.state().clientByTaxID(taxID, ""); row != nil {
		c := row.Client
		return &c, nil
	}
	return nil, nil
}

// List lista clientes, más recientes primero.
func (r *ClientRepo) List(_ context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	defer r.h.lock()()
	rows := make([]*clientRow, 0, len(r.h.state().clients))
	for _, row := range r.h.state().clients {
		if f.Active != nil && row.IsActive != *f.Active {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ord > rows[j].ord
	})
	rows = paginate(rows, f.Limit, f.Offset)
	list := make([]*entity.Client, 0, len(rows))
	for _, row := range rows {
		c := row.Client
		list = append(list, &c)
	}
	return list, nil
}

// Update actualiza el cliente.
func (r *ClientRepo) Update(_ context.Context, c *entity.Client) error {
	defer r.h.lock()()
	st := r.h.state()
	row, ok := st.clients[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if st.clientByTaxID(c.TaxID, c.ID) != nil {
		return fmt.Errorf("update client: %w", domain.ErrDuplicate)
	}
	row.Client = *c
	return nil
}

// Delete elimina un cliente; con facturas asociadas devuelve ErrReferenced.
func (r *ClientRepo) Delete(_ context.Context, id string) error {
	defer r.h.lock()()
	st := r.h.state()
	if _, ok := st.clients[id]; !ok {
		return domain.ErrNotFound
	}
	for _, inv := range st.invoices {
		if inv.ClientID == id {
			return fmt.Errorf("delete client: %w", domain.ErrReferenced)
		}
	}
	delete(st.clients, id)
	return nil
}

func (st *state) clientByTaxID(taxID, exceptID string) *clientRow {
	for _, row := range st.clients {
		if row.TaxID == taxID && row.ID != exceptID {
			return row
		}
	}
	return nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
