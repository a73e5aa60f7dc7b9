package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicex/internal/mapping"
)

func invoiceMapping(t *testing.T) *mapping.FieldMapping {
	t.Helper()
	m, err := mapping.Parse([]byte(`{"invoice_number": "Invoice #", "date": "Date", "total": "Total"}`))
	require.NoError(t, err)
	return m
}

func record(t *testing.T, m *mapping.FieldMapping, values map[string]string) *mapping.Record {
	t.Helper()
	rec, err := mapping.NewRecord(m, values)
	require.NoError(t, err)
	return rec
}

func TestWriteJSON_SingleRecordObject(t *testing.T) {
	m := invoiceMapping(t)
	rec := record(t, m, map[string]string{
		"invoice_number": "1001",
		"date":           "2024-01-05",
		"total":          "250.00",
	})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []*mapping.Record{rec}))

	var out map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, map[string]string{
		"invoice_number": "1001",
		"date":           "2024-01-05",
		"total":          "250.00",
	}, out)

	// keys must appear in mapping order, not alphabetical
	compact := strings.Join(strings.Fields(buf.String()), "")
	assert.Equal(t, `{"invoice_number":"1001","date":"2024-01-05","total":"250.00"}`, compact)
}

func TestWriteJSON_MultipleRecordsArray(t *testing.T) {
	m := invoiceMapping(t)
	recs := []*mapping.Record{
		record(t, m, map[string]string{"invoice_number": "1001"}),
		record(t, m, map[string]string{"invoice_number": "1002"}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, recs))

	var out []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "1002", out[1]["invoice_number"])
}

func TestWriteJSON_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteCSV(t *testing.T) {
	m := invoiceMapping(t)
	recs := []*mapping.Record{
		record(t, m, map[string]string{
			"invoice_number": "1001",
			"date":           "2024-01-05",
			"total":          "250.00",
		}),
		record(t, m, map[string]string{"invoice_number": "1002"}), // date/total missing
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m, recs))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(raw[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"invoice_number", "date", "total"}, rows[0])
	assert.Equal(t, []string{"1001", "2024-01-05", "250.00"}, rows[1])
	assert.Equal(t, []string{"1002", "", ""}, rows[2])
}

func TestWriteXLSX(t *testing.T) {
	m := invoiceMapping(t)
	recs := []*mapping.Record{
		record(t, m, map[string]string{
			"invoice_number": "1001",
			"date":           "2024-01-05",
			"total":          "250.00",
		}),
	}

	b, err := WriteXLSX(m, recs, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"invoice_number", "date", "total"}, rows[0])
	assert.Equal(t, []string{"1001", "2024-01-05", "250.00"}, rows[1])
}

func TestPreview(t *testing.T) {
	m := invoiceMapping(t)
	rec := record(t, m, map[string]string{"invoice_number": "1001", "total": "250.00"})
	rec.SourcePath = "/tmp/invoices/jan.pdf"

	var buf bytes.Buffer
	Preview(&buf, rec)
	out := buf.String()

	assert.Contains(t, out, "jan.pdf")
	assert.Contains(t, out, "invoice_number: 1001")
	// "date" pads out to the widest field name so values line up
	assert.Contains(t, out, "date:"+strings.Repeat(" ", 11)+"(missing)")
}
