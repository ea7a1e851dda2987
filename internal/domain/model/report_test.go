package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Empty(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		empty  bool
	}{
		{name: "nil", report: nil, empty: true},
		{name: "zero bytes", report: Report(""), empty: true},
		{name: "whitespace only", report: Report("  \n"), empty: true},
		{name: "json null", report: Report("null"), empty: true},
		{name: "empty object", report: Report("{}"), empty: true},
		{name: "empty array", report: Report("[]"), empty: true},
		{name: "object with fields", report: Report(`{"findings":{}}`), empty: false},
		{name: "non-empty array", report: Report(`[1]`), empty: false},
		{name: "scalar", report: Report(`0`), empty: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.report.Empty())
		})
	}
}

func TestReport_MarshalPassthrough(t *testing.T) {
	report := Report(`{"qualifier_version": "v0.2.0"}`)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, string(report), string(raw))

	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, string(report), string(decoded))
}
