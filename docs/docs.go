// Package docs registra el documento OpenAPI de la API en swag.
// swagger.json se regenera con `swag init -g cmd/api/main.go` a partir de las anotaciones de los handlers.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON []byte

// SwaggerInfo información del documento, ajustable en runtime (host, basePath).
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Facturación API",
	Description:      "Clientes, productos y facturas con IVA y CAE simulado.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  string(swaggerJSON),
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
