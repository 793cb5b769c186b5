package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	// ErrReferenced: el registro está referenciado por otro (ej. cliente con facturas) y no puede eliminarse.
	ErrReferenced = errors.New("el recurso está referenciado y no puede eliminarse")
	// ErrInvalidState: la operación no es válida para el estado actual de la factura.
	ErrInvalidState = errors.New("operación inválida para el estado actual")
)
