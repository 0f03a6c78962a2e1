package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"crossref/internal"
	"crossref/internal/catalog"
	"crossref/internal/config"
	"crossref/internal/storage"
	"crossref/internal/util"
	"crossref/internal/xlsxio"
)

const outputNameInfix = "_Found_YV_Codes_"

// ProcessingService runs one upload through the whole pipeline: load
// catalog, read upload, resolve columns, extract, match, serialize,
// clean up. Instances are safe for concurrent requests; all per-request
// state lives on the stack.
type ProcessingService struct {
	cfg    config.Config
	db     *storage.DB
	source catalog.Source
}

func NewProcessingService(cfg config.Config, db *storage.DB, source catalog.Source) *ProcessingService {
	return &ProcessingService{cfg: cfg, db: db, source: source}
}

type ProcessResult struct {
	OutputFilename string
	QueryCount     int
	MatchCount     int
}

// Process matches the staged upload against the catalog and writes the
// result workbook. The staged upload is removed on every exit path. A
// non-nil error alongside a populated OutputFilename means only cleanup
// failed; the output artifact exists and the caller may still use it.
func (s *ProcessingService) Process(uploadPath, originalFilename, rawKeywords string) (ProcessResult, error) {
	start := time.Now()
	trace := traceID()
	defer removeQuietly(uploadPath)

	fail := func(err error) (ProcessResult, error) {
		s.recordRun(trace, originalFilename, rawKeywords, internal.RunRecord{
			Status: failureStatus(err),
			Error:  util.StringPtr(err.Error()),
		}, start)
		return ProcessResult{}, err
	}

	keywords := util.SplitKeywords(rawKeywords)
	if len(keywords) == 0 {
		return fail(ErrNoKeywords)
	}

	index, err := s.source.Load()
	if err != nil {
		return fail(err)
	}

	table, err := xlsxio.ReadFile(uploadPath, s.cfg.QuerySheet, true)
	if err != nil {
		return fail(fmt.Errorf("read upload: %w", err))
	}

	resolved, err := ResolveHeaders(table.Headers, keywords)
	if err != nil {
		return fail(err)
	}

	queries := BuildQuerySet(table, resolved)
	found := Match(index, queries)
	if len(found) == 0 {
		return fail(ErrNoMatchFound)
	}

	outputFilename := buildOutputFilename(originalFilename, start)
	outputPath := filepath.Join(s.cfg.OutputDir, outputFilename)
	switch s.cfg.ExportMode {
	case config.ExportModeStandalone:
		err = WriteStandalone(found, outputPath)
	default:
		err = WriteAnnotated(table, resolved, found, s.cfg.AnnotateColumn, outputPath)
	}
	if err != nil {
		return fail(fmt.Errorf("write output: %w", err))
	}

	result := ProcessResult{
		OutputFilename: outputFilename,
		QueryCount:     len(queries),
		MatchCount:     len(found),
	}
	s.recordRun(trace, originalFilename, rawKeywords, internal.RunRecord{
		QueryCount:     result.QueryCount,
		MatchCount:     result.MatchCount,
		OutputFilename: util.StringPtr(outputFilename),
		Status:         internal.RunOK,
	}, start)

	// The result exists by now; a retention failure degrades the request
	// but must not undo it. Callers see both the result and the error.
	removeQuietly(uploadPath)
	if err := PruneDir(s.cfg.OutputDir, s.cfg.OutputKeep); err != nil {
		return result, err
	}
	return result, PruneDir(s.cfg.UploadDir, s.cfg.UploadKeep)
}

func (s *ProcessingService) recordRun(trace, originalFilename, rawKeywords string, run internal.RunRecord, start time.Time) {
	if s.db == nil {
		return
	}
	run.TraceID = trace
	run.OriginalFilename = originalFilename
	run.Keywords = rawKeywords
	run.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	if err := s.db.InsertRun(run); err != nil {
		log.Printf("record run %s: %v", trace, err)
	}
}

func failureStatus(err error) internal.RunStatus {
	if IsUserError(err) {
		return internal.RunRejected
	}
	return internal.RunFailed
}

// buildOutputFilename derives the artifact name from the uploaded name:
// <base>_Found_YV_Codes_<timestamp><ext>, timestamp sortable and free of
// characters illegal in filenames.
func buildOutputFilename(originalFilename string, now time.Time) string {
	base := filepath.Base(originalFilename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".xlsx"
	}
	return stem + outputNameInfix + now.Format("2006-01-02_15-04-05") + ext
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("remove %s: %v", path, err)
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
