package chart_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab/internal/chart"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"gonum.org/v1/gonum/mat"
)

func input() chart.Input {
	clean := mat.NewDense(3, 3, []float64{1, 2, 3, 2, 4, 6, 3, 6, 9})
	noisy := mat.NewDense(3, 3, []float64{1.1, 2, 2.9, 2, 4.2, 6, 3, 5.9, 9.1})
	return chart.Input{
		Title:  "unit",
		Clean:  clean,
		Noisy:  noisy,
		Approx: clean,
		S:      []float64{14, 0.2, 0},
		K:      1,
		Reports: []metrics.Report{
			{Rank: 1, Energy: 0.99, ErrClean: 0.1, ErrNoisy: 0.2, TailBound: 0.2},
			{Rank: 2, Energy: 1, ErrClean: 0.2, ErrNoisy: 0.05, TailBound: 0.05},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf, input()))
	html := buf.String()

	assert.Contains(t, html, "<title>unit</title>")
	assert.Contains(t, html, `"type":"surface"`)
	assert.Equal(t, 3, strings.Count(html, `"type":"surface"`))
	assert.Contains(t, html, `"type":"log"`)
	assert.Contains(t, html, "Singular values")
	assert.Contains(t, html, "Cumulative energy")
	assert.Contains(t, html, "Reconstruction error")
}

func TestPage_SkipsMissing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf, chart.Input{S: []float64{1}}))
	html := buf.String()
	assert.NotContains(t, html, `"type":"surface"`)
	assert.Contains(t, html, "Singular values")
	assert.NotContains(t, html, "Cumulative energy")
	assert.Contains(t, html, "<title>svdlab</title>")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	require.NoError(t, chart.Save(path, input()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "echarts")
}
