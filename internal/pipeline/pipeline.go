package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"invoicex/internal/document"
	"invoicex/internal/history"
	"invoicex/internal/llm"
	"invoicex/internal/mapping"
	"invoicex/internal/normalize"
)

// Config holds behavior flags for a pipeline run.
type Config struct {
	ChunkSize    int  // default 2000
	ChunkOverlap int  // default 200
	Rerun        bool // re-extract documents already in the history store
}

// Failure records one document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Summary reports what a run did.
type Summary struct {
	Processed int
	Skipped   int
	Failures  []Failure
	Elapsed   time.Duration
}

// Pipeline wires Loader -> FieldExtractor -> Normalizer for a strictly
// sequential run over input documents. One document is processed start to
// finish before the next begins; a failing document is reported and skipped
// without disturbing records already collected.
type Pipeline struct {
	Logger     *slog.Logger
	Cfg        Config
	Loader     *document.Loader
	Extractor  llm.FieldExtractor
	Normalizer *normalize.Normalizer
	History    *history.Store // nil disables dedup and result recording
}

func New(logger *slog.Logger, cfg Config, loader *document.Loader, fe llm.FieldExtractor, n *normalize.Normalizer, hist *history.Store) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 2000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}
	return &Pipeline{
		Logger:     logger,
		Cfg:        cfg,
		Loader:     loader,
		Extractor:  fe,
		Normalizer: n,
		History:    hist,
	}
}

// Run processes paths in order and returns the records that were produced.
// Errors for individual documents land in the summary, not in an error return;
// the run itself only stops on a canceled context.
func (p *Pipeline) Run(ctx context.Context, paths []string, m *mapping.FieldMapping) ([]*mapping.Record, Summary, error) {
	runID := uuid.New().String()
	start := time.Now()
	p.Logger.Info("pipeline.run.start", "run_id", runID, "documents", len(paths), "fields", m.Len())

	var records []*mapping.Record
	var sum Summary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return records, sum, err
		}

		rec, skipped, err := p.ProcessDocument(ctx, path, m)
		switch {
		case err != nil:
			p.Logger.Error("pipeline.document.error", "run_id", runID, "path", path, "error", err)
			sum.Failures = append(sum.Failures, Failure{Path: path, Err: err})
		case skipped:
			sum.Skipped++
			records = append(records, rec)
		default:
			sum.Processed++
			records = append(records, rec)
		}
	}

	sum.Elapsed = time.Since(start)
	p.Logger.Info("pipeline.run.ok",
		"run_id", runID,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", len(sum.Failures),
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return records, sum, nil
}

// ProcessDocument runs one document through load -> extract -> normalize.
// skipped is true when the record was replayed from the history store instead
// of calling the extraction service.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string, m *mapping.FieldMapping) (*mapping.Record, bool, error) {
	doc, err := p.Loader.Load(ctx, path)
	if err != nil {
		return nil, false, err
	}

	if p.History != nil && !p.Cfg.Rerun {
		if rec := p.replayFromHistory(ctx, doc, m); rec != nil {
			p.Logger.Info("pipeline.document.skip_duplicate", "path", path, "content_hash", doc.ContentHash)
			return rec, true, nil
		}
	}

	rec, err := p.extract(ctx, doc, m)
	if p.History != nil {
		if err != nil {
			_ = p.History.RecordFailure(ctx, doc.ContentHash, path, err.Error())
		} else if fieldsJSON, mErr := json.Marshal(rec); mErr == nil {
			_ = p.History.RecordSuccess(ctx, doc.ContentHash, path, fieldsJSON)
		}
	}
	return rec, false, err
}

func (p *Pipeline) extract(ctx context.Context, doc *document.Document, m *mapping.FieldMapping) (*mapping.Record, error) {
	chunks := document.Chunk(doc.Text, p.Cfg.ChunkSize, p.Cfg.ChunkOverlap)
	p.Logger.Info("pipeline.extract.start",
		"path", doc.Path, "format", string(doc.Format), "chunks", len(chunks))

	payloads := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		req := llm.ExtractRequest{
			Text:         chunk,
			Mapping:      m,
			FilenameHint: filepath.Base(doc.Path),
			ChunkIndex:   i + 1,
			ChunkCount:   len(chunks),
		}
		payload, err := p.Extractor.ExtractFields(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		payloads = append(payloads, payload)
	}

	merged, err := llm.MergeChunkPayloads(payloads, p.Logger)
	if err != nil {
		return nil, err
	}

	rec, err := p.Normalizer.Normalize(merged, m)
	if err != nil {
		return nil, err
	}
	rec.SourcePath = doc.Path
	return rec, nil
}

// replayFromHistory rebuilds a record from a prior successful run. Returns nil
// when there is no usable row (never ran, failed, or the mapping has since
// changed shape).
func (p *Pipeline) replayFromHistory(ctx context.Context, doc *document.Document, m *mapping.FieldMapping) *mapping.Record {
	row, err := p.History.Lookup(ctx, doc.ContentHash)
	if err != nil {
		p.Logger.Warn("pipeline.history_lookup_error", "path", doc.Path, "error", err)
		return nil
	}
	if row == nil || !row.FieldsJSON.Valid {
		return nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(row.FieldsJSON.String), &values); err != nil {
		return nil
	}
	rec, err := mapping.NewRecord(m, values)
	if err != nil {
		// stored fields no longer fit the mapping; re-extract
		return nil
	}
	rec.SourcePath = doc.Path
	return rec
}
