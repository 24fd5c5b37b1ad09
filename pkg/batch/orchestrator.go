package batch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/encoder"
	"DocumentExtractionSystem/pkg/extraction"
	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/normalize"
	"DocumentExtractionSystem/pkg/parsers"
)

// ErrUnsupportedConcurrency is returned for a policy asking for parallel files
var ErrUnsupportedConcurrency = errors.New("only one file may be in flight at a time")

// Policy controls how files are dispatched
type Policy struct {
	// MaxConcurrentFiles is the number of files whose pipelines may overlap.
	// Only 1 is supported; records are stored by submission index either way.
	MaxConcurrentFiles int
}

// DefaultPolicy processes one file at a time
func DefaultPolicy() Policy {
	return Policy{MaxConcurrentFiles: 1}
}

// Stage names the pipeline step a file failed in
type Stage string

const (
	StageEncode  Stage = "encode"
	StageExtract Stage = "extract"
	StageParse   Stage = "parse"
)

// Progress is reported after each file's record is stored
type Progress struct {
	Index  int
	Total  int
	Record models.NormalizedRecord
}

// SchemaChecker reports advisory schema violations for a parsed response
type SchemaChecker interface {
	Check(kind models.DocumentKind, raw models.ExtractionResult) []string
}

// EncodeFunc reads a source file into a transport payload
type EncodeFunc func(ctx context.Context, file models.SourceFile) (models.EncodedFile, error)

// Orchestrator drives files through encode, extract, parse and normalize
type Orchestrator struct {
	extractor  extraction.Client
	encode     EncodeFunc
	normalizer *normalize.Normalizer
	checker    SchemaChecker
	policy     Policy
	logger     *zap.Logger
	onProgress func(Progress)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPolicy sets the dispatch policy
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNormalizer replaces the default normalizer, e.g. to control record IDs
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.normalizer = n
		}
	}
}

// WithEncoder replaces encoder.Encode
func WithEncoder(fn EncodeFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.encode = fn
		}
	}
}

// WithSchemaChecker enables advisory schema checks on parsed responses
func WithSchemaChecker(c SchemaChecker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

// WithProgress registers a callback invoked after every file
func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// New creates an Orchestrator around the given extraction client
func New(extractor extraction.Client, opts ...Option) (*Orchestrator, error) {
	if extractor == nil {
		return nil, errors.New("extraction client is required")
	}
	o := &Orchestrator{
		extractor:  extractor,
		encode:     encoder.Encode,
		normalizer: normalize.New(nil),
		policy:     DefaultPolicy(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.policy.MaxConcurrentFiles != 1 {
		return nil, fmt.Errorf("%w: MaxConcurrentFiles=%d", ErrUnsupportedConcurrency, o.policy.MaxConcurrentFiles)
	}
	return o, nil
}

// Start validates the queue and returns an idle run for it
func (o *Orchestrator) Start(files []models.SourceFile, kind models.DocumentKind) (*Run, error) {
	if len(files) == 0 {
		return nil, ErrEmptyQueue
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}
	return newRun(files, kind), nil
}

// Run processes files in order and returns one record per file.
// Only pre-flight problems are returned as errors; per-file failures become
// placeholder records.
func (o *Orchestrator) Run(ctx context.Context, files []models.SourceFile, kind models.DocumentKind) ([]models.NormalizedRecord, error) {
	run, err := o.Start(files, kind)
	if err != nil {
		return nil, err
	}
	if err := o.Process(ctx, run); err != nil {
		return nil, err
	}
	return run.Results(), nil
}

// Process works through an idle run one file at a time until it completes.
// Cancellation is observed between files; files left when ctx is done get
// placeholder records so every file still has exactly one record.
func (o *Orchestrator) Process(ctx context.Context, run *Run) error {
	if run.status != StatusIdle || run.completed != 0 {
		return ErrAlreadyStarted
	}
	run.status = StatusProcessing

	total := len(run.files)
	o.logger.Info("batch started", zap.String("kind", run.kind.String()), zap.Int("files", total))

	for i, file := range run.files {
		var rec models.NormalizedRecord
		if err := ctx.Err(); err != nil {
			rec = o.normalizer.Failed(run.kind, file.Name(), fmt.Errorf("batch cancelled: %w", err))
		} else {
			rec = o.processFile(ctx, i, file, run.kind)
		}

		run.store(i, rec)
		if o.onProgress != nil {
			o.onProgress(Progress{Index: i, Total: total, Record: rec})
		}
	}

	run.status = StatusCompleted
	o.logger.Info("batch completed",
		zap.String("kind", run.kind.String()),
		zap.Int("files", total),
		zap.Int("failed", run.Failed()),
	)
	return nil
}

func (o *Orchestrator) processFile(ctx context.Context, index int, file models.SourceFile, kind models.DocumentKind) models.NormalizedRecord {
	raw, stage, err := o.extract(ctx, file, kind)
	if err != nil {
		o.logger.Warn("extraction failed",
			zap.Int("index", index),
			zap.String("file", file.Name()),
			zap.String("kind", kind.String()),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return o.normalizer.Failed(kind, file.Name(), err)
	}

	if o.checker != nil {
		if violations := o.checker.Check(kind, raw); len(violations) > 0 {
			o.logger.Debug("response does not match schema",
				zap.String("file", file.Name()),
				zap.Strings("violations", violations),
			)
		}
	}

	return o.normalizer.Normalize(raw, kind, file.Name())
}

func (o *Orchestrator) extract(ctx context.Context, file models.SourceFile, kind models.DocumentKind) (models.ExtractionResult, Stage, error) {
	encoded, err := o.encode(ctx, file)
	if err != nil {
		return models.ExtractionResult{}, StageEncode, err
	}

	text, err := o.extractor.Extract(ctx, encoded, kind)
	if err != nil {
		return models.ExtractionResult{}, StageExtract, err
	}

	raw, err := parsers.Parse(text)
	if err != nil {
		return models.ExtractionResult{}, StageParse, err
	}
	return raw, "", nil
}
