package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	CatalogSourceWorkbook = "workbook"
	CatalogSourceStore    = "store"

	CatalogReloadRequest = "request"
	CatalogReloadStartup = "startup"

	ExportModeAnnotated  = "annotated"
	ExportModeStandalone = "standalone"
)

type Config struct {
	Port      int
	UploadDir string
	OutputDir string
	DBPath    string

	CatalogPath   string
	CatalogSheet  string
	CatalogSource string
	CatalogReload string

	// QuerySheet is the preferred sheet of an uploaded workbook; unlike
	// the catalog sheet, absence falls back to the first sheet.
	QuerySheet string

	OEColumn       string
	YVColumn       string
	AnnotateColumn string
	ExportMode     string

	OutputKeep  int
	UploadKeep  int
	MaxUploadMB int64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:      getEnvInt("PORT", 10000),
		UploadDir: getEnv("UPLOAD_DIR", filepath.Join(cwd, "uploads")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "outputs")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),

		CatalogPath:   getEnv("CATALOG_PATH", filepath.Join(cwd, "data", "ORJ_NO_KATALOG.xlsx")),
		CatalogSheet:  getEnv("CATALOG_SHEET", "Sheet1"),
		CatalogSource: getEnv("CATALOG_SOURCE", CatalogSourceWorkbook),
		CatalogReload: getEnv("CATALOG_RELOAD", CatalogReloadRequest),

		QuerySheet: getEnv("QUERY_SHEET", "Sayfa1"),

		OEColumn:       getEnv("OE_COLUMN", "OE"),
		YVColumn:       getEnv("YV_COLUMN", "YV"),
		AnnotateColumn: getEnv("ANNOTATE_COLUMN", "Found_YV_Codes"),
		ExportMode:     getEnv("EXPORT_MODE", ExportModeAnnotated),

		OutputKeep:  getEnvInt("OUTPUT_KEEP", 5),
		UploadKeep:  getEnvInt("UPLOAD_KEEP", 3),
		MaxUploadMB: int64(getEnvInt("MAX_UPLOAD_MB", 10)),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.CatalogSource {
	case CatalogSourceWorkbook, CatalogSourceStore:
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE: %s", c.CatalogSource)
	}
	switch c.CatalogReload {
	case CatalogReloadRequest, CatalogReloadStartup:
	default:
		return fmt.Errorf("invalid CATALOG_RELOAD: %s", c.CatalogReload)
	}
	switch c.ExportMode {
	case ExportModeAnnotated, ExportModeStandalone:
	default:
		return fmt.Errorf("invalid EXPORT_MODE: %s", c.ExportMode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
