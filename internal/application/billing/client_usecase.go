package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/afip"
)

// ClientUseCase casos de uso para clientes (facturación).
type ClientUseCase struct {
	repo repository.ClientRepository
	now  func() time.Time
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo, now: time.Now}
}

// Create crea un nuevo cliente. El CUIT/DNI se guarda solo con dígitos.
func (uc *ClientUseCase) Create(ctx context.Context, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	if !entity.ValidClientType(in.ClientType) {
		return nil, fmt.Errorf("%w: client_type %q desconocido", domain.ErrInvalidInput, in.ClientType)
	}
	taxID, err := normalizeTaxID(in.TaxID)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe un cliente con tax_id %s", domain.ErrDuplicate, taxID)
	}
	now := uc.now()
	client := &entity.Client{
		ID:         uuid.New().String(),
		Name:       name,
		TaxID:      taxID,
		ClientType: in.ClientType,
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    in.Address,
		IsActive:   in.IsActive == nil || *in.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return ToClientResponse(client), nil
}

// GetByID obtiene un cliente.
func (uc *ClientUseCase) GetByID(ctx context.Context, id string) (*dto.ClientResponse, error) {
	client, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToClientResponse(client), nil
}

// List lista clientes, más recientes primero.
func (uc *ClientUseCase) List(ctx context.Context, page dto.PageRequest, active *bool) (*dto.ClientListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, repository.ClientFilter{Active: active, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.ClientListResponse{
		Items: make([]dto.ClientResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, c := range list {
		out.Items = append(out.Items, *ToClientResponse(c))
	}
	return out, nil
}

// Update aplica una actualización parcial.
func (uc *ClientUseCase) Update(ctx context.Context, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
		}
		client.Name = name
	}
	if in.TaxID != nil {
		taxID, err := normalizeTaxID(*in.TaxID)
		if err != nil {
			return nil, err
		}
		if taxID != client.TaxID {
			other, err := uc.repo.GetByTaxID(ctx, taxID)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, fmt.Errorf("%w: ya existe un cliente con tax_id %s", domain.ErrDuplicate, taxID)
			}
		}
		client.TaxID = taxID
	}
	if in.ClientType != nil {
		if !entity.ValidClientType(*in.ClientType) {
			return nil, fmt.Errorf("%w: client_type %q desconocido", domain.ErrInvalidInput, *in.ClientType)
		}
		client.ClientType = *in.ClientType
	}
	if in.Email != nil {
		client.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		client.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		client.Address = *in.Address
	}
	if in.IsActive != nil {
		client.IsActive = *in.IsActive
	}
	client.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return ToClientResponse(client), nil
}

// Delete elimina un cliente. Con facturas asociadas devuelve ErrReferenced.
func (uc *ClientUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.find(ctx, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *ClientUseCase) find(ctx context.Context, id string) (*entity.Client, error) {
	client, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func normalizeTaxID(raw string) (string, error) {
	if err := afip.ValidateTaxID(raw); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return string(afip.ExtractDigits(raw)), nil
}

// ToClientResponse convierte la entidad a DTO.
func ToClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:         c.ID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		ClientType: c.ClientType,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
