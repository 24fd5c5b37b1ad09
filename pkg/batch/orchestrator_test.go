package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"DocumentExtractionSystem/pkg/encoder"
	"DocumentExtractionSystem/pkg/export"
	"DocumentExtractionSystem/pkg/extraction"
	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/parsers"
	"DocumentExtractionSystem/pkg/schema"
)

// fakeExtractor answers by file content, so each test file's bytes double as its key
type fakeExtractor struct {
	responses map[string]string
	failures  map[string]error
	calls     []string
	onCall    func()
}

func (f *fakeExtractor) Extract(_ context.Context, file models.EncodedFile, kind models.DocumentKind) (string, error) {
	key := string(file.Content)
	f.calls = append(f.calls, key)
	if f.onCall != nil {
		f.onCall()
	}
	if err, ok := f.failures[key]; ok {
		return "", err
	}
	if text, ok := f.responses[key]; ok {
		return text, nil
	}
	return `{}`, nil
}

type unreadableFile struct{ name string }

func (f unreadableFile) Name() string      { return f.name }
func (f unreadableFile) MediaType() string { return "application/pdf" }
func (f unreadableFile) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.New("permission denied")
}

func file(name string) models.SourceFile {
	return encoder.BytesFile{FileName: name, Type: "application/pdf", Data: []byte(name)}
}

func newOrchestrator(t *testing.T, ex extraction.Client, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(ex, opts...)
	require.NoError(t, err)
	return o
}

func TestRunPreservesOrderAndCardinality(t *testing.T) {
	ex := &fakeExtractor{responses: map[string]string{
		"a.pdf": `{"supplier_name": "A", "total_amount": 1}`,
		"b.pdf": `{"supplier_name": "B", "total_amount": 2}`,
		"c.pdf": `{"supplier_name": "C", "total_amount": 3}`,
		"d.pdf": `{"supplier_name": "D", "total_amount": 4}`,
	}}
	files := []models.SourceFile{file("a.pdf"), file("b.pdf"), file("c.pdf"), file("d.pdf")}

	records, err := newOrchestrator(t, ex).Run(context.Background(), files, models.InvoiceKind)
	require.NoError(t, err)

	require.Len(t, records, len(files))
	for i, rec := range records {
		assert.Equal(t, files[i].Name(), rec.FileName)
		assert.False(t, rec.Failed())
		assert.Equal(t, float64(i+1), rec.Invoice.TotalAmount)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}, ex.calls, "files are sent one at a time in order")
}

func TestRunMixedBatch(t *testing.T) {
	ex := &fakeExtractor{
		responses: map[string]string{
			"one.pdf":   `{"supplier_name": "Acme Co", "total_amount": 150.5}`,
			"three.pdf": `{"supplier_name": "Globex", "total_amount": 20, "currency": "EUR"}`,
		},
		failures: map[string]error{
			"two.pdf": &extraction.ModelError{Provider: "gemini", Model: "test", Err: errors.New("quota exceeded")},
		},
	}
	files := []models.SourceFile{file("one.pdf"), file("two.pdf"), file("three.pdf")}

	records, err := newOrchestrator(t, ex).Run(context.Background(), files, models.InvoiceKind)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.False(t, records[0].Failed())
	assert.True(t, records[1].Failed())
	assert.False(t, records[2].Failed())

	assert.Equal(t, "Acme Co", records[0].Invoice.SupplierName)
	assert.Equal(t, "Globex", records[2].Invoice.SupplierName)
	assert.Equal(t, "EUR", records[2].Invoice.Currency)

	failed := export.Flatten(records[1])
	assert.Equal(t, "two.pdf", failed.FileName)
	assert.Equal(t, "ERROR", *failed.Invoice.InvoiceNumber)
	assert.Equal(t, "Extraction Failed", failed.Invoice.SupplierName)
	assert.Equal(t, 0.0, failed.Invoice.TotalAmount)
	assert.Equal(t, 0.0, failed.Invoice.TaxAmount)
	assert.Contains(t, records[1].Reason, "quota exceeded")
}

func TestRunModelFailureScenario(t *testing.T) {
	ex := &fakeExtractor{failures: map[string]error{
		"scan1.pdf": &extraction.ModelError{Provider: "gemini", Model: "test", Err: extraction.ErrEmptyResponse},
	}}

	records, err := newOrchestrator(t, ex).Run(context.Background(), []models.SourceFile{file("scan1.pdf")}, models.InvoiceKind)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := export.Flatten(records[0])
	assert.Equal(t, "scan1.pdf", rec.FileName)
	assert.Equal(t, "ERROR", *rec.Invoice.InvoiceNumber)
	assert.Equal(t, "Extraction Failed", rec.Invoice.SupplierName)
	assert.Equal(t, 0.0, rec.Invoice.TotalAmount)
	assert.Equal(t, "", rec.Invoice.Currency)
	assert.Empty(t, rec.Invoice.LineItems)
}

func TestRunIsolatesEveryStage(t *testing.T) {
	ex := &fakeExtractor{
		responses: map[string]string{"bad-json.pdf": "I could not find an invoice here."},
		failures:  map[string]error{"model-down.pdf": errors.New("connection reset")},
	}
	files := []models.SourceFile{
		file("ok-1.pdf"),
		unreadableFile{name: "locked.pdf"},
		file("model-down.pdf"),
		file("bad-json.pdf"),
		file("ok-2.pdf"),
	}

	core, logs := observer.New(zapcore.WarnLevel)
	records, err := newOrchestrator(t, ex, WithLogger(zap.New(core))).Run(context.Background(), files, models.InvoiceKind)
	require.NoError(t, err)
	require.Len(t, records, len(files))

	wantFailed := []bool{false, true, true, true, false}
	for i, rec := range records {
		assert.Equal(t, wantFailed[i], rec.Failed(), "record %d", i)
		assert.Equal(t, files[i].Name(), rec.FileName)
	}

	// the unreadable file never reaches the model
	assert.NotContains(t, ex.calls, "locked.pdf")

	warnings := logs.FilterMessage("extraction failed").All()
	require.Len(t, warnings, 3)
	stages := make([]string, len(warnings))
	for i, entry := range warnings {
		stages[i] = entry.ContextMap()["stage"].(string)
	}
	assert.Equal(t, []string{string(StageEncode), string(StageExtract), string(StageParse)}, stages)
}

func TestRunFailureReasonsKeepErrorTypes(t *testing.T) {
	ex := &fakeExtractor{responses: map[string]string{"bad.pdf": "[1, 2]"}}

	var reasons []error
	o := newOrchestrator(t, ex, WithEncoder(func(ctx context.Context, f models.SourceFile) (models.EncodedFile, error) {
		enc, err := encoder.Encode(ctx, f)
		if err != nil {
			reasons = append(reasons, err)
		}
		return enc, err
	}))

	records, err := o.Run(context.Background(), []models.SourceFile{unreadableFile{name: "x.pdf"}, file("bad.pdf")}, models.InvoiceKind)
	require.NoError(t, err)

	require.Len(t, reasons, 1)
	var encErr *encoder.EncodingError
	assert.True(t, errors.As(reasons[0], &encErr))

	assert.True(t, records[1].Failed())
	assert.Contains(t, records[1].Reason, parsers.ErrNotObject.Error())
}

func TestRunIdentifiersAreUniqueAndNonEmpty(t *testing.T) {
	ex := &fakeExtractor{failures: map[string]error{"f3.pdf": errors.New("boom")}}
	var files []models.SourceFile
	for i := 0; i < 50; i++ {
		files = append(files, file(fmt.Sprintf("f%d.pdf", i)))
	}
	// repeated names still get distinct records
	files = append(files, file("f1.pdf"), file("f1.pdf"))

	records, err := newOrchestrator(t, ex).Run(context.Background(), files, models.BusinessCardKind)
	require.NoError(t, err)
	require.Len(t, records, len(files))

	seen := make(map[string]bool)
	for _, rec := range records {
		require.NotEmpty(t, rec.ID)
		require.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestRunBusinessCards(t *testing.T) {
	ex := &fakeExtractor{
		responses: map[string]string{"jane.png": "```json\n{\"full_name\": \"Jane Doe\"}\n```"},
		failures:  map[string]error{"blurry.png": errors.New("no text")},
	}
	files := []models.SourceFile{file("jane.png"), file("blurry.png")}

	records, err := newOrchestrator(t, ex).Run(context.Background(), files, models.BusinessCardKind)
	require.NoError(t, err)

	assert.Equal(t, &models.BusinessCardRecord{FullName: "Jane Doe"}, records[0].BusinessCard)
	assert.True(t, records[1].Failed())
	assert.Equal(t, "Extraction Failed", export.Flatten(records[1]).BusinessCard.FullName)
}

func TestRunPreflightErrors(t *testing.T) {
	ex := &fakeExtractor{}
	o := newOrchestrator(t, ex)

	_, err := o.Run(context.Background(), nil, models.InvoiceKind)
	assert.ErrorIs(t, err, ErrEmptyQueue)

	_, err = o.Run(context.Background(), []models.SourceFile{file("a.pdf")}, "receipt")
	assert.ErrorIs(t, err, models.ErrUnknownKind)

	assert.Empty(t, ex.calls, "nothing is processed when pre-flight fails")
}

func TestNewRejectsConcurrency(t *testing.T) {
	_, err := New(&fakeExtractor{}, WithPolicy(Policy{MaxConcurrentFiles: 4}))
	assert.ErrorIs(t, err, ErrUnsupportedConcurrency)

	_, err = New(&fakeExtractor{}, WithPolicy(Policy{}))
	assert.ErrorIs(t, err, ErrUnsupportedConcurrency)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestRunCancellationBetweenFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ex := &fakeExtractor{}
	// cancel while the second file is in flight; it still finishes
	ex.onCall = func() {
		if len(ex.calls) == 2 {
			cancel()
		}
	}
	files := []models.SourceFile{file("1.pdf"), file("2.pdf"), file("3.pdf"), file("4.pdf")}

	records, err := newOrchestrator(t, ex).Run(ctx, files, models.InvoiceKind)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"1.pdf", "2.pdf"}, ex.calls)
	assert.False(t, records[0].Failed())
	assert.False(t, records[1].Failed())
	for _, rec := range records[2:] {
		assert.True(t, rec.Failed())
		assert.Contains(t, rec.Reason, context.Canceled.Error())
	}
}

func TestRunLifecycle(t *testing.T) {
	var progress []Progress
	ex := &fakeExtractor{failures: map[string]error{"b.pdf": errors.New("boom")}}
	o := newOrchestrator(t, ex, WithProgress(func(p Progress) { progress = append(progress, p) }))

	run, err := o.Start([]models.SourceFile{file("a.pdf"), file("b.pdf")}, models.InvoiceKind)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, run.Status())
	assert.Len(t, run.Pending(), 2)
	assert.Empty(t, run.Results())
	assert.ErrorIs(t, run.Reset(), ErrNotCompleted)

	require.NoError(t, o.Process(context.Background(), run))
	assert.Equal(t, StatusCompleted, run.Status())
	assert.Empty(t, run.Pending())
	assert.Len(t, run.Results(), 2)
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, models.InvoiceKind, run.Kind())

	require.Len(t, progress, 2)
	assert.Equal(t, 0, progress[0].Index)
	assert.Equal(t, 1, progress[1].Index)
	assert.Equal(t, 2, progress[1].Total)
	assert.True(t, progress[1].Record.Failed())

	assert.ErrorIs(t, o.Process(context.Background(), run), ErrAlreadyStarted)

	require.NoError(t, run.Reset())
	assert.Equal(t, StatusIdle, run.Status())
	assert.Empty(t, run.Results())
	assert.Empty(t, run.Pending())
}

func TestRunLogsSchemaViolations(t *testing.T) {
	registry, err := schema.NewRegistry()
	require.NoError(t, err)

	ex := &fakeExtractor{responses: map[string]string{"a.pdf": `{"invoice_number": "7"}`}}
	core, logs := observer.New(zapcore.DebugLevel)
	o := newOrchestrator(t, ex, WithLogger(zap.New(core)), WithSchemaChecker(registry))

	records, err := o.Run(context.Background(), []models.SourceFile{file("a.pdf")}, models.InvoiceKind)
	require.NoError(t, err)

	assert.False(t, records[0].Failed(), "schema violations never fail a record")
	assert.Equal(t, "Unknown Supplier", records[0].Invoice.SupplierName)
	assert.Equal(t, 1, logs.FilterMessage("response does not match schema").Len())
}
