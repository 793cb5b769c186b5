package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/usecase"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	ClientUC    *billing.ClientUseCase
	ProductUC   *usecase.ProductUseCase
	InvoiceUC   *billing.InvoiceUseCase
	DocumentsUC *billing.DocumentUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token con rol conocido)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin, entity.RoleFacturador))
	adminOnly := RequireRole(entity.RoleAdmin)

	// Usuarios
	userHandler := NewUserHandler(deps.UserUC)
	protected.Get("/auth/me", userHandler.Me)
	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.List)
	users.Put("/:id", userHandler.Update)

	// Clients
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", adminOnly, clientHandler.Delete)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Post("/import", productHandler.Import)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Invoices
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.DocumentsUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Put("/:id/items", invoiceHandler.ReplaceItems)
	invoices.Post("/:id/items", invoiceHandler.AddItem)
	invoices.Put("/:id/items/:itemId", invoiceHandler.UpdateItem)
	invoices.Delete("/:id/items/:itemId", invoiceHandler.RemoveItem)
	invoices.Post("/:id/issue", invoiceHandler.Issue)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Get("/:id/xml", invoiceHandler.ExportXML)
	invoices.Get("/:id/qr", invoiceHandler.QRCode)
}
