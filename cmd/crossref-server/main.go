package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossref/internal/catalog"
	"crossref/internal/config"
	"crossref/internal/pipeline"
	"crossref/internal/server"
	"crossref/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	source, err := makeSource(cfg, db)
	must(err)

	processor := pipeline.NewProcessingService(cfg, db, source)
	srv := server.New(cfg, processor)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Printf("server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	must(httpServer.Shutdown(shutdownCtx))
}

func makeSource(cfg config.Config, db *storage.DB) (catalog.Source, error) {
	var source catalog.Source
	switch cfg.CatalogSource {
	case config.CatalogSourceStore:
		source = catalog.StoreSource{DB: db}
	default:
		source = catalog.WorkbookSource{
			Path:     cfg.CatalogPath,
			Sheet:    cfg.CatalogSheet,
			OEColumn: cfg.OEColumn,
			YVColumn: cfg.YVColumn,
		}
	}
	if cfg.CatalogReload == config.CatalogReloadStartup {
		return catalog.NewCachedSource(source)
	}
	return source, nil
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
