// Package memory implementa los puertos de persistencia en memoria.
// Reproduce las restricciones del esquema SQL (unicidad, FK restrict y cascada) para
// que el comportamiento observable coincida con el adaptador PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*Store)(nil)

type state struct {
	clients  map[string]*clientRow
	products map[string]*productRow
	invoices map[string]*invoiceRow
	items    map[string]*itemRow
	users    map[string]*userRow
	ord      int64 // contador de inserción para orden estable
}

func newState() *state {
	return &state{
		clients:  make(map[string]*clientRow),
		products: make(map[string]*productRow),
		invoices: make(map[string]*invoiceRow),
		items:    make(map[string]*itemRow),
		users:    make(map[string]*userRow),
	}
}

func (st *state) nextOrd() int64 {
	st.ord++
	return st.ord
}

// clone copia el estado completo; las filas son valores, no se comparten punteros.
func (st *state) clone() *state {
	cp := newState()
	cp.ord = st.ord
	for k, v := range st.clients {
		row := *v
		cp.clients[k] = &row
	}
	for k, v := range st.products {
		row := *v
		cp.products[k] = &row
	}
	for k, v := range st.invoices {
		row := *v
		cp.invoices[k] = &row
	}
	for k, v := range st.items {
		row := *v
		cp.items[k] = &row
	}
	for k, v := range st.users {
		row := *v
		cp.users[k] = &row
	}
	return cp
}

// Store base de datos en memoria. Un único escritor a la vez (mutex global).
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// handle acceso al estado: fuera de transacción toma el mutex en cada operación;
// dentro de RunBilling el mutex ya está tomado por la transacción.
type handle struct {
	s    *Store
	inTx bool
}

func (h handle) lock() func() {
	if h.inTx {
		return func() {}
	}
	h.s.mu.Lock()
	return h.s.mu.Unlock
}

func (h handle) state() *state { return h.s.st }

// Clients devuelve el repositorio de clientes.
func (s *Store) Clients() *ClientRepo { return &ClientRepo{h: handle{s: s}} }

// Products devuelve el repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{h: handle{s: s}} }

// Invoices devuelve el repositorio de facturas e ítems.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{h: handle{s: s}} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{h: handle{s: s}} }

// RunBilling ejecuta fn con acceso exclusivo al almacenamiento. Si fn falla (o entra en
// pánico) se restaura la foto tomada al inicio: todo o nada, como una transacción.
func (s *Store) RunBilling(ctx context.Context, fn func(
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	h := handle{s: s, inTx: true}
	if err := fn(&ClientRepo{h: h}, &ProductRepo{h: h}, &InvoiceRepo{h: h}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
