package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Workflow string `json:"workflow" yaml:"workflow"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Success("workflow %s is enabled", "Wf1")
	p.Failure("action %s failed", "Compose")
	p.Field("Run ID", "run-123")
	p.Progress(1, 3, "firing %s", "manual")

	out := buf.String()
	assert.Contains(t, out, "✓ workflow Wf1 is enabled")
	assert.Contains(t, out, "✗ action Compose failed")
	assert.Contains(t, out, "Run ID")
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "[1/3] firing manual")
	assert.NotContains(t, out, "\x1b[", "no escape codes when writing to a buffer")
	assert.False(t, p.Structured())
}

func TestPrinter_WriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetFormat(FormatJSON)

	require.NoError(t, p.Write(sample{Workflow: "Wf1", Enabled: true}))

	assert.True(t, p.Structured())
	assert.JSONEq(t, `{"workflow":"Wf1","enabled":true}`, buf.String())
}

func TestPrinter_WriteYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetFormat(FormatYAML)

	require.NoError(t, p.Write(sample{Workflow: "Wf1", Enabled: false}))

	assert.Equal(t, "workflow: Wf1\nenabled: false\n", buf.String())
}
