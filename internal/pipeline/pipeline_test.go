package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicex/internal/common"
	"invoicex/internal/document"
	"invoicex/internal/history"
	"invoicex/internal/llm"
	"invoicex/internal/mapping"
	"invoicex/internal/normalize"
)

// fakeExtractor stands in for the completion API: canned payload per call.
type fakeExtractor struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractFields(_ context.Context, _ llm.ExtractRequest) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func invoiceMapping(t *testing.T) *mapping.FieldMapping {
	t.Helper()
	m, err := mapping.Parse([]byte(`{"invoice_number": "Invoice #", "date": "Date", "total": "Total"}`))
	require.NoError(t, err)
	return m
}

func writeInvoiceXLSX(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Invoice #: 1001"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Date: 2024-01-05"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "Total: $250.00"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newPipeline(fe llm.FieldExtractor, hist *history.Store, rerun bool) *Pipeline {
	return New(nil, Config{ChunkSize: 2000, ChunkOverlap: 200, Rerun: rerun},
		document.NewLoader(nil), fe, normalize.NewNormalizer(nil), hist)
}

func TestRun_ExtractsRecord(t *testing.T) {
	path := writeInvoiceXLSX(t, t.TempDir(), "inv.xlsx")
	fe := &fakeExtractor{payload: []byte(`{"invoice_number": "1001", "date": "2024-01-05", "total": "$250.00"}`)}

	p := newPipeline(fe, nil, false)
	records, sum, err := p.Run(context.Background(), []string{path}, invoiceMapping(t))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, 1, sum.Processed)
	assert.Empty(t, sum.Failures)
	assert.Equal(t, 1, fe.calls)
	assert.Equal(t, path, records[0].SourcePath)

	b, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.Equal(t, `{"invoice_number":"1001","date":"2024-01-05","total":"250.00"}`, string(b))
}

func TestRun_UnsupportedFormatBeforeAnyServiceCall(t *testing.T) {
	fe := &fakeExtractor{payload: []byte(`{}`)}
	p := newPipeline(fe, nil, false)

	_, sum, err := p.Run(context.Background(), []string{"contract.docx"}, invoiceMapping(t))
	require.NoError(t, err)

	require.Len(t, sum.Failures, 1)
	assert.ErrorIs(t, sum.Failures[0].Err, common.ErrUnsupportedFormat)
	assert.Equal(t, 0, fe.calls, "extractor must never be invoked for unsupported formats")
}

func TestRun_FailingDocumentDoesNotDisturbOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeInvoiceXLSX(t, dir, "good.xlsx")

	fe := &fakeExtractor{payload: []byte(`{"invoice_number": "1001"}`)}
	p := newPipeline(fe, nil, false)

	records, sum, err := p.Run(context.Background(),
		[]string{"bogus.docx", good, filepath.Join(dir, "missing.pdf")}, invoiceMapping(t))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, 1, sum.Processed)
	require.Len(t, sum.Failures, 2)
	assert.Equal(t, "bogus.docx", sum.Failures[0].Path)
	assert.ErrorIs(t, sum.Failures[1].Err, common.ErrUnreadable)
}

func TestRun_MalformedPayloadProducesNoRecord(t *testing.T) {
	path := writeInvoiceXLSX(t, t.TempDir(), "inv.xlsx")
	fe := &fakeExtractor{payload: []byte(`this is not json`)}

	p := newPipeline(fe, nil, false)
	records, sum, err := p.Run(context.Background(), []string{path}, invoiceMapping(t))
	require.NoError(t, err)

	assert.Empty(t, records)
	require.Len(t, sum.Failures, 1)
	assert.ErrorIs(t, sum.Failures[0].Err, common.ErrMalformedResponse)
}

func TestRun_ServiceErrorSurfaces(t *testing.T) {
	path := writeInvoiceXLSX(t, t.TempDir(), "inv.xlsx")
	fe := &fakeExtractor{err: common.ServiceError("openai status 503", nil)}

	p := newPipeline(fe, nil, false)
	_, sum, err := p.Run(context.Background(), []string{path}, invoiceMapping(t))
	require.NoError(t, err)

	require.Len(t, sum.Failures, 1)
	assert.ErrorIs(t, sum.Failures[0].Err, common.ErrService)
}

func TestRun_HistorySkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeInvoiceXLSX(t, dir, "inv.xlsx")

	hist, err := history.Open(context.Background(), filepath.Join(dir, "history.db"), nil)
	require.NoError(t, err)
	defer func() { _ = hist.Close() }()

	fe := &fakeExtractor{payload: []byte(`{"invoice_number": "1001", "total": "250.00"}`)}
	p := newPipeline(fe, hist, false)
	m := invoiceMapping(t)

	// first run extracts
	records, sum, err := p.Run(context.Background(), []string{path}, m)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, fe.calls)

	// second run replays from history without touching the extractor
	records, sum, err = p.Run(context.Background(), []string{path}, m)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, fe.calls)

	v, ok := records[0].Get("invoice_number")
	assert.True(t, ok)
	assert.Equal(t, "1001", v)
}

func TestRun_RerunBypassesHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeInvoiceXLSX(t, dir, "inv.xlsx")

	hist, err := history.Open(context.Background(), filepath.Join(dir, "history.db"), nil)
	require.NoError(t, err)
	defer func() { _ = hist.Close() }()

	fe := &fakeExtractor{payload: []byte(`{"invoice_number": "1001"}`)}

	p := newPipeline(fe, hist, false)
	m := invoiceMapping(t)
	_, _, err = p.Run(context.Background(), []string{path}, m)
	require.NoError(t, err)
	require.Equal(t, 1, fe.calls)

	p = newPipeline(fe, hist, true)
	_, sum, err := p.Run(context.Background(), []string{path}, m)
	require.NoError(t, err)
	assert.Equal(t, 2, fe.calls)
	assert.Equal(t, 1, sum.Processed)
}

func TestRun_FailureIsRecordedInHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeInvoiceXLSX(t, dir, "inv.xlsx")

	hist, err := history.Open(context.Background(), filepath.Join(dir, "history.db"), nil)
	require.NoError(t, err)
	defer func() { _ = hist.Close() }()

	fe := &fakeExtractor{err: common.TimeoutError("deadline", errors.New("timeout"))}
	p := newPipeline(fe, hist, false)
	_, sum, err := p.Run(context.Background(), []string{path}, invoiceMapping(t))
	require.NoError(t, err)
	require.Len(t, sum.Failures, 1)

	// a failed document is retried on the next run, not skipped
	fe2 := &fakeExtractor{payload: []byte(`{"invoice_number": "1001"}`)}
	p2 := newPipeline(fe2, hist, false)
	_, sum, err = p2.Run(context.Background(), []string{path}, invoiceMapping(t))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, fe2.calls)
}

func TestRun_CanceledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fe := &fakeExtractor{payload: []byte(`{}`)}
	p := newPipeline(fe, nil, false)
	_, _, err := p.Run(ctx, []string{"whatever.pdf"}, invoiceMapping(t))
	assert.ErrorIs(t, err, context.Canceled)
}
