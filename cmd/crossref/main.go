package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"crossref/internal"
	"crossref/internal/catalog"
	"crossref/internal/config"
	"crossref/internal/pipeline"
	"crossref/internal/storage"
	"crossref/internal/xlsxio"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", cfg.CatalogPath, "catalog workbook path")
		sheet := fs.String("sheet", cfg.CatalogSheet, "catalog sheet name (exact)")
		_ = fs.Parse(os.Args[2:])

		table, err := xlsxio.ReadFile(*file, *sheet, false)
		must(err)
		idx := catalog.BuildIndex(table.Rows, cfg.OEColumn, cfg.YVColumn)
		must(db.ReplaceCatalog(idx.Entries()))
		stored, err := db.CountCatalogEntries()
		must(err)
		fmt.Printf("catalog import complete: %d rows -> %d entries stored\n", len(table.Rows), stored)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "query workbook path")
		keywords := fs.String("keywords", "", "comma-separated header keywords")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || strings.TrimSpace(*keywords) == "" {
			must(fmt.Errorf("--input and --keywords are required"))
		}

		source, err := makeSource(cfg, db)
		must(err)

		// Process consumes its input, so run on a staged copy.
		staged, err := stageCopy(cfg.UploadDir, *input)
		must(err)

		processor := pipeline.NewProcessingService(cfg, db, source)
		result, err := processor.Process(staged, filepath.Base(*input), *keywords)
		must(err)
		fmt.Printf("run done queries=%d matches=%d output=%s\n",
			result.QueryCount, result.MatchCount, filepath.Join(cfg.OutputDir, result.OutputFilename))
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs to list")
		trace := fs.String("trace", "", "show a single run by trace id")
		_ = fs.Parse(os.Args[2:])

		var runs []internal.RunRecord
		if strings.TrimSpace(*trace) != "" {
			run, err := db.GetRunByTraceID(*trace)
			must(err)
			if run == nil {
				must(fmt.Errorf("run not found: trace=%s", *trace))
			}
			runs = append(runs, *run)
		} else {
			listed, err := db.ListRecentRuns(*limit)
			must(err)
			runs = listed
		}
		for _, run := range runs {
			line := fmt.Sprintf("%s  %-8s  %s  keywords=%q queries=%d matches=%d",
				run.CreatedAt, run.Status, run.OriginalFilename, run.Keywords, run.QueryCount, run.MatchCount)
			if run.Error != nil {
				line += "  error=" + *run.Error
			}
			fmt.Println(line)
		}
	case "prune":
		must(pipeline.PruneDir(cfg.OutputDir, cfg.OutputKeep))
		must(pipeline.PruneDir(cfg.UploadDir, cfg.UploadKeep))
		fmt.Printf("prune complete: outputs keep=%d uploads keep=%d\n", cfg.OutputKeep, cfg.UploadKeep)
	default:
		usage()
		os.Exit(1)
	}
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

func stageCopy(uploadDir, input string) (string, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}
	src, err := os.Open(input)
	if err != nil {
		return "", err
	}
	defer src.Close()

	staged := filepath.Join(uploadDir, uuid.NewString())
	dst, err := os.Create(staged)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(staged)
		return "", err
	}
	return staged, dst.Close()
}

func usage() {
	fmt.Println("usage: crossref <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:import [--file=...xlsx] [--sheet=Sheet1]")
	fmt.Println("  run --input=...xlsx --keywords=OE,oem")
	fmt.Println("  runs [--limit=20] [--trace=...]")
	fmt.Println("  prune")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
