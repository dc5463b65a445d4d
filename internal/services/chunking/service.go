package chunking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"book-chunker/config"
	"book-chunker/internal/core/labeling"
	"book-chunker/internal/database/model"
	"book-chunker/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBookNotFound marks a book id with no row in the store.
var ErrBookNotFound = errors.New("book not found")

// Store is the persistence surface the pipeline needs for one run.
type Store interface {
	FetchBookByID(ctx context.Context, bookID int64) (*model.Book, error)
	ChunksExist(ctx context.Context, bookID int64) (bool, error)
	DeleteChunks(ctx context.Context, bookID int64) (int64, error)
	InsertChunk(ctx context.Context, chunk *model.Chunk) error
	FetchTopics(ctx context.Context) ([]model.Topic, error)
}

// Options are the process-wide run settings.
type Options struct {
	OverwriteExisting bool
	Strategy          string // "intelligent" or "legacy"
	MaxWords          int
	FallbackChunks    int
	LegacyChunks      int
	Strict            bool
}

// OptionsFromConfig reads the pipeline config section.
func OptionsFromConfig() Options {
	pc := config.Cfg.Pipeline
	return Options{
		OverwriteExisting: pc.OverwriteExisting,
		Strategy:          pc.Strategy,
		MaxWords:          pc.MaxWords,
		FallbackChunks:    pc.FallbackChunks,
		LegacyChunks:      pc.LegacyChunks,
		Strict:            pc.StrictClassification,
	}
}

// Report is the response payload of one pipeline invocation.
type Report struct {
	Message              string   `json:"message,omitempty"`
	Status               string   `json:"status"`
	BookID               int64    `json:"book_id"`
	Steps                []string `json:"steps,omitempty"`
	CorrelationID        string   `json:"correlation_id"`
	RAMUsageMB           float64  `json:"ram_usage_mb,omitempty"`
	ExecutionTimeSeconds float64  `json:"execution_time_seconds,omitempty"`
	Error                string   `json:"error,omitempty"`
}

// Pipeline drives the chunking run for one book id: idempotency gate,
// optional overwrite, strategy selection, per-chunk enrichment and
// persistence, step-log accumulation. Runs are strictly sequential; there is
// no mid-run cancellation.
type Pipeline struct {
	store    Store
	labeler  labeling.Service
	docs     DocumentOpener
	enricher *Enricher
	opts     Options
}

func NewPipeline(store Store, labeler labeling.Service, docs DocumentOpener, opts Options) *Pipeline {
	return &Pipeline{
		store:    store,
		labeler:  labeler,
		docs:     docs,
		enricher: NewEnricher(labeler, opts.MaxWords, opts.Strict),
		opts:     opts,
	}
}

// Run executes the full pipeline for bookID. Terminal failures come back as
// an error-status report carrying whatever steps accumulated; partial inserts
// committed before a failure are not rolled back.
func (p *Pipeline) Run(ctx context.Context, bookID int64) Report {
	correlationID := uuid.NewString()
	startTime := time.Now()
	steps := []string{}

	logger.WithFields(map[string]interface{}{
		"book_id":        bookID,
		"correlation_id": correlationID,
	}).Info("chunking: run start")

	fail := func(err error, message string) Report {
		logger.Error(err, "chunking: %s (book_id %d)", message, bookID)
		return Report{
			Status:        "error",
			BookID:        bookID,
			Steps:         steps,
			CorrelationID: correlationID,
			Error:         message,
		}
	}

	book, err := p.store.FetchBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrBookNotFound, "Unable to retrieve book data from the database.")
		}
		return fail(err, fmt.Sprintf("An unexpected error occurred during processing: %v", err))
	}

	exists, err := p.store.ChunksExist(ctx, bookID)
	if err != nil {
		return fail(err, fmt.Sprintf("An unexpected error occurred during processing: %v", err))
	}

	if exists && !p.opts.OverwriteExisting {
		logger.Info("chunking: chunks already exist for book_id %d; skipping (overwrite disabled)", bookID)
		steps = append(steps, "Existing chunks found. Skipping generation due to overwrite settings.")
		return p.complete(bookID, correlationID, startTime, steps)
	}

	if exists {
		steps = append(steps, "Existing chunks found. Initiating overwrite process.")
		deleted, err := p.store.DeleteChunks(ctx, bookID)
		if err != nil {
			return fail(err, fmt.Sprintf("An unexpected error occurred during processing: %v", err))
		}
		logger.Info("chunking: deleted %d existing chunks for book_id %d", deleted, bookID)
		steps = append(steps, "Existing chunks deleted successfully.")
	} else {
		steps = append(steps, "No existing chunks found. Starting intelligent chunk generation process.")
	}

	doc, cleanup, err := p.docs.Open(ctx, book.URL)
	if err != nil {
		return fail(err, fmt.Sprintf("An unexpected error occurred during processing: %v", err))
	}
	defer cleanup()
	defer doc.Close()

	if p.opts.Strategy == "legacy" {
		steps = append(steps, p.legacyChunking(ctx, doc, bookID)...)
	} else {
		steps = append(steps, p.intelligentChunking(ctx, doc, bookID)...)
	}

	return p.complete(bookID, correlationID, startTime, steps)
}

// intelligentChunking runs TOC detection and chooses between chapter-bounded
// and positional chunking. Failures below this level land in the step log;
// the run itself completes.
func (p *Pipeline) intelligentChunking(ctx context.Context, doc DocumentSource, bookID int64) []string {
	steps := []string{"Initiating intelligent chunking process."}

	region := FindTOC(ctx, p.labeler, doc)
	if !region.HasTOC {
		logger.Warn("chunking: no table of contents found for book_id %d", bookID)
		steps = append(steps, "No table of contents found. Falling back to standard chunking.")
		return append(steps, p.standardChunking(ctx, doc, bookID)...)
	}

	steps = append(steps, fmt.Sprintf("Table of contents found from page %d to %d.", region.StartPage, region.EndPage))

	tocText, err := TOCText(doc, region)
	if err != nil {
		logger.Error(err, "chunking: toc text extraction failed for book_id %d", bookID)
		return append(steps, fmt.Sprintf("Error during intelligent chunking: %v", err))
	}

	entries, err := p.labeler.ExtractChapters(ctx, tocText)
	if err != nil || len(entries) == 0 {
		// chapter extraction failed; the positional fallback is the only
		// recovery path
		if err != nil {
			logger.Error(err, "chunking: chapter extraction failed for book_id %d", bookID)
		}
		steps = append(steps, "Chapter extraction yielded no chapters. Falling back to standard chunking.")
		return append(steps, p.standardChunking(ctx, doc, bookID)...)
	}

	chapters := ResolveChapters(entries, doc.NumPages())
	return append(steps, p.chapterChunking(ctx, doc, bookID, chapters)...)
}

func (p *Pipeline) complete(bookID int64, correlationID string, startTime time.Time, steps []string) Report {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	ramUsageMB := float64(mem.Alloc) / 1024 / 1024

	elapsed := time.Since(startTime).Seconds()
	logger.WithFields(map[string]interface{}{
		"book_id":        bookID,
		"correlation_id": correlationID,
		"ram_usage_mb":   ramUsageMB,
		"elapsed_s":      elapsed,
	}).Info("chunking: run complete")

	return Report{
		Message:              fmt.Sprintf("PDF processing completed successfully for book_id %d", bookID),
		Status:               "success",
		BookID:               bookID,
		Steps:                steps,
		CorrelationID:        correlationID,
		RAMUsageMB:           math.Round(ramUsageMB*100) / 100,
		ExecutionTimeSeconds: math.Round(elapsed*100) / 100,
	}
}
