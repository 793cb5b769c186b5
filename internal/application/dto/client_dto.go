package dto

import "time"

// CreateClientRequest entrada para crear un cliente.
type CreateClientRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`      // CUIT (11 dígitos) o DNI (7-8)
	ClientType string `json:"client_type"` // MONOTRIBUTO, RESPONSABLE_INSCRIPTO, CONSUMIDOR_FINAL, EXENTO
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"` // por defecto true
}

// UpdateClientRequest actualización parcial de un cliente.
type UpdateClientRequest struct {
	Name       *string `json:"name"`
	TaxID      *string `json:"tax_id"`
	ClientType *string `json:"client_type"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	IsActive   *bool   `json:"is_active"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TaxID      string    `json:"tax_id"`
	ClientType string    `json:"client_type"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClientListResponse lista paginada de clientes.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
