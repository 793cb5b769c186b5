package entity

import (
	"fmt"
	"time"
)

// Condición frente al IVA del cliente.
const (
	ClientTypeMonotributo          = "MONOTRIBUTO"
	ClientTypeResponsableInscripto = "RESPONSABLE_INSCRIPTO"
	ClientTypeConsumidorFinal      = "CONSUMIDOR_FINAL"
	ClientTypeExento               = "EXENTO"
)

// Client representa un cliente facturable. TaxID (CUIT/DNI) es único entre clientes.
type Client struct {
	ID         string
	Name       string
	TaxID      string
	ClientType string
	Email      string
	Phone      string
	Address    string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidClientType indica si t pertenece a la enumeración de condiciones frente al IVA.
func ValidClientType(t string) bool {
	switch t {
	case ClientTypeMonotributo, ClientTypeResponsableInscripto, ClientTypeConsumidorFinal, ClientTypeExento:
		return true
	}
	return false
}

func (c *Client) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.TaxID)
}
