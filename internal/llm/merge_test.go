package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicex/internal/common"
)

func TestMergeChunkPayloads_FirstValueWins(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{"invoice_number": "1001", "date": "2024-01-05"}`),
		[]byte(`{"invoice_number": "9999", "total": "250.00"}`),
	}
	merged, err := MergeChunkPayloads(payloads, nil)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(merged, &out))
	assert.Equal(t, map[string]string{
		"invoice_number": "1001",
		"date":           "2024-01-05",
		"total":          "250.00",
	}, out)
}

func TestMergeChunkPayloads_AgreementIsNotAConflict(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{"total": "250.00"}`),
		[]byte(`{"total": "250.00"}`),
	}
	merged, err := MergeChunkPayloads(payloads, nil)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(merged, &out))
	assert.Equal(t, "250.00", out["total"])
}

func TestMergeChunkPayloads_Empty(t *testing.T) {
	merged, err := MergeChunkPayloads(nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(merged))
}

func TestMergeChunkPayloads_MalformedChunk(t *testing.T) {
	_, err := MergeChunkPayloads([][]byte{[]byte(`not json`)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}
