package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/Facturacion-api/docs"
	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/usecase"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	infraafip "github.com/jhoicas/Facturacion-api/internal/infrastructure/afip"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Facturacion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	infraqr "github.com/jhoicas/Facturacion-api/internal/infrastructure/qr"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/xmlexport"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// @title                       Facturación API
// @version                     1.0
// @description                 Clientes, productos y facturas con IVA y CAE simulado.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>

// storage agrupa los repositorios y el runner transaccional del backend elegido.
type storage struct {
	users    repository.UserRepository
	clients  repository.ClientRepository
	products repository.ProductRepository
	invoices repository.InvoiceRepository
	tx       billing.BillingTxRunner
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	issuer := billing.Issuer{CUIT: cfg.AFIP.CUIT, Name: cfg.AFIP.IssuerName}

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	userUC := usecase.NewUserUseCase(store.users)
	clientUC := billing.NewClientUseCase(store.clients)
	productUC := usecase.NewProductUseCase(store.products)

	// CAE simulado: una integración real con WSFE implementa billing.CAEAuthorizer
	authorizer := infraafip.NewMockAuthorizer(cfg.AFIP.CAEValidityDays)
	invoiceUC := billing.NewInvoiceUseCase(store.tx, store.clients, store.invoices, authorizer,
		billing.InvoiceConfig{Issuer: issuer, DefaultPointOfSale: cfg.AFIP.PointOfSale}, log)

	// PDF, XML y QR del comprobante
	documentsUC := billing.NewDocumentUseCase(store.invoices, store.clients, issuer,
		infrapdf.NewMarotoPDFGenerator(), xmlexport.NewExporter(), infraqr.NewEncoder(), log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		UserUC:      userUC,
		ClientUC:    clientUC,
		ProductUC:   productUC,
		InvoiceUC:   invoiceUC,
		DocumentsUC: documentsUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage abre PostgreSQL (aplicando migraciones si corresponde) o el store en memoria.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &storage{
			users:    mem.Users(),
			clients:  mem.Clients(),
			products: mem.Products(),
			invoices: mem.Invoices(),
			tx:       mem,
			close:    func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		version, err := postgres.Migrate(cfg.DB.ConnectionString())
		if err != nil {
			return nil, err
		}
		log.Info().Uint("version", version).Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		users:    postgres.NewUserRepository(pool),
		clients:  postgres.NewClientRepository(pool),
		products: postgres.NewProductRepository(pool),
		invoices: postgres.NewInvoiceRepository(pool),
		tx:       postgres.NewTxRunner(pool),
		close:    pool.Close,
	}, nil
}
