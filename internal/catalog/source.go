package catalog

import (
	"fmt"
	"log"

	"crossref/internal/storage"
	"crossref/internal/xlsxio"
)

// Source loads the reference index from wherever a deployment keeps its
// catalog. Two adapters exist: the row-per-pair workbook and the
// pre-aggregated sqlite store. The matcher never knows which one served.
type Source interface {
	Load() (*Index, error)
}

// WorkbookSource reads the catalog workbook on every Load. The sheet name
// is exact: the catalog layout is a deployment invariant, and a silent
// first-sheet fallback here would match against the wrong data.
type WorkbookSource struct {
	Path     string
	Sheet    string
	OEColumn string
	YVColumn string
}

func (s WorkbookSource) Load() (*Index, error) {
	table, err := xlsxio.ReadFile(s.Path, s.Sheet, false)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(table.Rows) == 0 {
		log.Printf("catalog workbook %s sheet %s has no rows", s.Path, s.Sheet)
	}
	return BuildIndex(table.Rows, s.OEColumn, s.YVColumn), nil
}

// StoreSource serves the pre-aggregated catalog kept in sqlite by
// `catalog:import`.
type StoreSource struct {
	DB *storage.DB
}

func (s StoreSource) Load() (*Index, error) {
	entries, err := s.DB.ListCatalogEntries()
	if err != nil {
		return nil, fmt.Errorf("load catalog from store: %w", err)
	}
	if len(entries) == 0 {
		log.Printf("catalog store is empty; run catalog:import first")
	}
	return FromEntries(entries), nil
}

// CachedSource wraps another Source, building the index once and serving
// the same immutable snapshot to every caller afterwards. Used when
// CATALOG_RELOAD=startup; staleness is accepted until restart.
type CachedSource struct {
	idx *Index
}

func NewCachedSource(inner Source) (*CachedSource, error) {
	idx, err := inner.Load()
	if err != nil {
		return nil, err
	}
	return &CachedSource{idx: idx}, nil
}

func (s *CachedSource) Load() (*Index, error) {
	return s.idx, nil
}
