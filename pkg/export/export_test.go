package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"title", "type", "summary"},
		Rows: []map[string]string{
			{"title": "Week 1", "type": "PROJECT", "summary": "built a calculator, with tests"},
			{"title": "주간 리포트", "type": "ALGORITHM"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	body := string(out[len(utf8BOM):])
	assert.Equal(t, "title,type,summary\nWeek 1,PROJECT,\"built a calculator, with tests\"\n주간 리포트,ALGORITHM,\n", body)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("").Render(sampleDataset(), "Progress reports")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter("").Render(Dataset{}, "x")
	assert.Error(t, err)
}
