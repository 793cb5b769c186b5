// import_products carga el catálogo de productos desde un CSV directamente en PostgreSQL.
//
// Uso: go run ./cmd/import_products [ruta/productos.csv]
// Por defecto busca productos.csv en el directorio actual.
// Columnas: code, name, price y opcionales description, iva_rate, stock (separador ',' o ';').
// Acepta archivos exportados en UTF-8, UTF-16, Latin-1 o Windows-1252.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Facturacion-api/internal/application/usecase"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func main() {
	csvPath := "productos.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Driver != config.StoragePostgres {
		fmt.Fprintf(os.Stderr, "import_products requiere STORAGE_DRIVER=postgres (actual: %s)\n", cfg.Storage.Driver)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("import_products")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", csvPath).Msg("abrir CSV")
	}
	defer f.Close()

	if cfg.DB.AutoMigrate {
		if _, err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := usecase.NewProductUseCase(postgres.NewProductRepository(pool))
	res, err := uc.ImportCSV(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Str("file", csvPath).Msg("importar productos")
	}

	for _, s := range res.Skipped {
		log.Warn().Int("line", s.Line).Str("code", s.Code).Str("reason", s.Reason).Msg("fila omitida")
	}
	log.Info().
		Str("file", csvPath).
		Str("charset", res.Charset).
		Int("created", res.Created).
		Int("skipped", len(res.Skipped)).
		Msg("importación finalizada")
}
