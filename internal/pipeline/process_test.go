package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"crossref/internal"
	"crossref/internal/catalog"
	"crossref/internal/config"
	"crossref/internal/storage"
	"crossref/internal/xlsxio"
)

func writeWorkbook(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		t.Fatal(err)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	// SaveAs refuses extension-less paths, but staged uploads are plain
	// byte copies at arbitrary names, so write the workbook bytes directly.
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testSetup(t *testing.T, exportMode string) (config.Config, *storage.DB, catalog.Source) {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.Config{
		UploadDir: filepath.Join(tmp, "uploads"),
		OutputDir: filepath.Join(tmp, "outputs"),

		CatalogPath:  filepath.Join(tmp, "catalog.xlsx"),
		CatalogSheet: "Sheet1",
		QuerySheet:   "Sayfa1",

		OEColumn:       "OE",
		YVColumn:       "YV",
		AnnotateColumn: "Found_YV_Codes",
		ExportMode:     exportMode,

		OutputKeep: 5,
		UploadKeep: 3,
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		t.Fatal(err)
	}

	writeWorkbook(t, cfg.CatalogPath, cfg.CatalogSheet, [][]any{
		{"OE", "YV"},
		{"ABC1", "V1"},
		{"ABC1", "V2"},
		{"DEF2", "V9"},
	})

	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	source := catalog.WorkbookSource{
		Path:     cfg.CatalogPath,
		Sheet:    cfg.CatalogSheet,
		OEColumn: cfg.OEColumn,
		YVColumn: cfg.YVColumn,
	}
	return cfg, db, source
}

func TestProcessAnnotated(t *testing.T) {
	cfg, db, source := testSetup(t, config.ExportModeAnnotated)
	svc := NewProcessingService(cfg, db, source)

	uploadPath := filepath.Join(cfg.UploadDir, "staged-1")
	writeWorkbook(t, uploadPath, "Sayfa1", [][]any{
		{"OEM", "Desc"},
		{"abc-1", "brake pad"},
		{"nope-7", "unrelated"},
	})

	res, err := svc.Process(uploadPath, "parts.xlsx", "OE")
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchCount != 1 || res.QueryCount != 2 {
		t.Fatalf("result=%+v", res)
	}
	if !strings.HasPrefix(res.OutputFilename, "parts_Found_YV_Codes_") || !strings.HasSuffix(res.OutputFilename, ".xlsx") {
		t.Fatalf("output name: %s", res.OutputFilename)
	}

	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Fatalf("upload should be removed, err=%v", err)
	}

	out, err := xlsxio.ReadFile(filepath.Join(cfg.OutputDir, res.OutputFilename), "Updated Data", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows=%v", out.Rows)
	}
	if out.Rows[0]["Found_YV_Codes"] != "V1, V2" {
		t.Fatalf("row0=%v", out.Rows[0])
	}
	if _, ok := out.Rows[1]["Found_YV_Codes"]; ok {
		t.Fatalf("row1=%v", out.Rows[1])
	}

	runs, err := db.ListRecentRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunOK || runs[0].MatchCount != 1 {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestProcessStandalone(t *testing.T) {
	cfg, db, source := testSetup(t, config.ExportModeStandalone)
	svc := NewProcessingService(cfg, db, source)

	uploadPath := filepath.Join(cfg.UploadDir, "staged-2")
	writeWorkbook(t, uploadPath, "Sayfa1", [][]any{
		{"OEM"},
		{"abc-1"},
	})

	res, err := svc.Process(uploadPath, "parts.xlsx", "OE")
	if err != nil {
		t.Fatal(err)
	}

	out, err := xlsxio.ReadFile(filepath.Join(cfg.OutputDir, res.OutputFilename), "Found OE Numbers", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("rows=%v", out.Rows)
	}
	if out.Rows[0]["OE"] != "ABC1" || out.Rows[0]["YV_1"] != "V1" || out.Rows[0]["YV_2"] != "V2" {
		t.Fatalf("row0=%v", out.Rows[0])
	}
}

func TestProcessNoMatches(t *testing.T) {
	cfg, db, source := testSetup(t, config.ExportModeAnnotated)
	svc := NewProcessingService(cfg, db, source)

	uploadPath := filepath.Join(cfg.UploadDir, "staged-3")
	writeWorkbook(t, uploadPath, "Sayfa1", [][]any{{"OEM"}})

	_, err := svc.Process(uploadPath, "empty.xlsx", "OE")
	if !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("err=%v", err)
	}

	if _, statErr := os.Stat(uploadPath); !os.IsNotExist(statErr) {
		t.Fatalf("upload should be removed on failure, err=%v", statErr)
	}
	entries, _ := os.ReadDir(cfg.OutputDir)
	if len(entries) != 0 {
		t.Fatalf("no output must be written: %v", entries)
	}

	runs, err := db.ListRecentRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunRejected {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestProcessNoKeywords(t *testing.T) {
	cfg, db, source := testSetup(t, config.ExportModeAnnotated)
	svc := NewProcessingService(cfg, db, source)

	uploadPath := filepath.Join(cfg.UploadDir, "staged-4")
	writeWorkbook(t, uploadPath, "Sayfa1", [][]any{{"OEM"}, {"abc-1"}})

	_, err := svc.Process(uploadPath, "parts.xlsx", " x , ")
	if !errors.Is(err, ErrNoKeywords) {
		t.Fatalf("err=%v", err)
	}
	if _, statErr := os.Stat(uploadPath); !os.IsNotExist(statErr) {
		t.Fatal("upload should be removed on rejection")
	}
}

func TestProcessCatalogSheetMissing(t *testing.T) {
	cfg, db, _ := testSetup(t, config.ExportModeAnnotated)
	source := catalog.WorkbookSource{
		Path:     cfg.CatalogPath,
		Sheet:    "Missing",
		OEColumn: cfg.OEColumn,
		YVColumn: cfg.YVColumn,
	}
	svc := NewProcessingService(cfg, db, source)

	uploadPath := filepath.Join(cfg.UploadDir, "staged-5")
	writeWorkbook(t, uploadPath, "Sayfa1", [][]any{{"OEM"}, {"abc-1"}})

	_, err := svc.Process(uploadPath, "parts.xlsx", "OE")
	if !errors.Is(err, xlsxio.ErrSheetNotFound) {
		t.Fatalf("err=%v", err)
	}
	if IsUserError(err) {
		t.Fatal("catalog failure is not a user error")
	}

	runs, _ := db.ListRecentRuns(1)
	if len(runs) != 1 || runs[0].Status != internal.RunFailed {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestProcessRetention(t *testing.T) {
	cfg, db, source := testSetup(t, config.ExportModeAnnotated)
	cfg.OutputKeep = 1
	svc := NewProcessingService(cfg, db, source)

	for i := 0; i < 3; i++ {
		uploadPath := filepath.Join(cfg.UploadDir, "staged")
		writeWorkbook(t, uploadPath, "Sayfa1", [][]any{{"OEM"}, {"abc-1"}})
		if _, err := svc.Process(uploadPath, "parts.xlsx", "OE"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("retention should keep one output, got %d", len(entries))
	}
}
