package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/property"
	"github.com/yyyoichi/svdlab/internal/store"
	"github.com/yyyoichi/svdlab/internal/svd"
)

func defaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(nil))
	require.NoError(t, err)
	return cfg
}

func TestFlags(t *testing.T) {
	cfg := defaults(t)
	fs, f := newFlags("run", cfg)
	require.NoError(t, f.parse(fs, []string{"-rows", "24", "-cols", "18", "-k", "4", "-method", "randomized", "-signal-rank", "3", "-max-rank", "30"}))

	l, err := f.lab()
	require.NoError(t, err)
	m, n := l.Dims()
	assert.Equal(t, 24, m)
	assert.Equal(t, 18, n)
	assert.Equal(t, 4, l.Rank())
	assert.Equal(t, svd.Randomized, l.Method())
	assert.Equal(t, "random-r3", l.Signal())
	// clamped to min(m, n)
	assert.Equal(t, 18, l.MaxRank())

	t.Run("invalid_method", func(t *testing.T) {
		fs, f := newFlags("run", defaults(t))
		require.NoError(t, f.parse(fs, []string{"-method", "lanczos"}))
		_, err := f.lab()
		assert.ErrorIs(t, err, svd.ErrUnknownMethod)
	})
	t.Run("invalid_config", func(t *testing.T) {
		fs, f := newFlags("run", defaults(t))
		assert.ErrorIs(t, f.parse(fs, []string{"-noise", "-1"}), config.ErrInvalid)
	})
	t.Run("rank_too_large", func(t *testing.T) {
		fs, f := newFlags("run", defaults(t))
		require.NoError(t, f.parse(fs, []string{"-size", "5", "-k", "6"}))
		_, err := f.lab()
		assert.ErrorIs(t, err, svdlab.ErrRankTooLarge)
	})
}

func TestParseLists(t *testing.T) {
	sigmas, err := parseFloats(" 0.1, 0.2,,0.3 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, sigmas)
	_, err = parseFloats("0.1,x")
	assert.Error(t, err)
	_, err = parseFloats(" , ")
	assert.Error(t, err)

	methods, err := parseMethods("thin, randomized")
	require.NoError(t, err)
	assert.Equal(t, []svd.Method{svd.Thin, svd.Randomized}, methods)
	_, err = parseMethods("qr")
	assert.ErrorIs(t, err, svd.ErrUnknownMethod)
}

func TestRepl(t *testing.T) {
	s := newTestSession(t)
	in := strings.NewReader("1\n\nabc\n17\n3\nq\n4\n")
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), in, &out, s))

	got := out.String()
	for _, k := range []int{1, 2, 3} {
		rep, _, err := s.At(k)
		require.NoError(t, err)
		assert.Contains(t, got, rep.String())
	}
	assert.Contains(t, got, `Invalid rank "abc".`)
	assert.Contains(t, got, "Error: ")
	assert.Contains(t, got, "Exiting...")
	// input after q is not read
	assert.NotContains(t, got, "Rank:  4 |")
}

func TestRepl_EOF(t *testing.T) {
	s := newTestSession(t)
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), strings.NewReader("2"), &out, s))
	rep, _, err := s.At(2)
	require.NoError(t, err)
	assert.Contains(t, out.String(), rep.String())
}

func TestWriteOutputs(t *testing.T) {
	l, err := svdlab.New(
		svdlab.WithSize(16, 12),
		svdlab.WithPreset("two-peaks"),
		svdlab.WithNoise(0.05),
		svdlab.WithRank(2),
		svdlab.WithMaxRank(6),
	)
	require.NoError(t, err)
	res, err := l.Run(context.Background())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, writeOutputs(dir, l, res))
	for _, name := range []string{DashboardFile, SpectrumFile, ErrorsFile, RasterFile, ReportFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	var text bytes.Buffer
	printSummary(&text, l, res)
	assert.Contains(t, text.String(), "two-peaks (16x12, true rank 2)")
	best, ok := metrics.Best(res.Reports)
	require.True(t, ok)
	assert.Contains(t, text.String(), "* "+best.String())

	b, err := sonic.Marshal(newSummary(l, res))
	require.NoError(t, err)
	var back Summary
	require.NoError(t, sonic.Unmarshal(b, &back))
	assert.Equal(t, "two-peaks", back.Signal)
	assert.Equal(t, "thin", back.Method)
	assert.Len(t, back.Reports, 6)
	assert.Equal(t, res.Report.Rank, back.Report.Rank)
}

func TestCheckCmd(t *testing.T) {
	// truncated and randomized factorizations keep fewer or inexact
	// triplets; the checks refactorize with the thin SVD and still pass
	for _, method := range []string{"thin", "truncated", "randomized"} {
		t.Run(method, func(t *testing.T) {
			args := []string{
				"-rows", "40", "-cols", "30", "-signal-rank", "3",
				"-noise", "0.1", "-k", "3", "-max-rank", "5",
				"-method", method,
			}
			assert.NoError(t, checkCmd(context.Background(), defaults(t), args))
		})
	}
}

func TestPrintChecks(t *testing.T) {
	pass := property.Check{Name: "eckart_young", Value: 1e-14, Tolerance: 1e-12, Pass: true}
	fail := property.Check{Name: "noise_scaling", Value: 0.5, Tolerance: 0.95}

	var out bytes.Buffer
	require.NoError(t, printChecks(&out, []property.Check{pass}))
	assert.Contains(t, out.String(), pass.String())

	out.Reset()
	err := printChecks(&out, []property.Check{pass, fail})
	assert.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out.String(), "[FAIL] noise_scaling")
}

func TestSweepCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sweep.db")
	// k above min(m, n) is clamped to 12 instead of failing
	args := []string{
		"-size", "12", "-k", "20", "-signal-rank", "2", "-max-rank", "4",
		"-sigmas", "0.05, 0.1", "-methods", "thin,truncated",
		"-db", dbPath,
	}
	require.NoError(t, sweepCmd(context.Background(), defaults(t), args))

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, r := range runs {
		assert.Equal(t, "random-r2", r.Signal)
		assert.Equal(t, 12, r.Rows)
		assert.Equal(t, 12, r.Cols)
		assert.Equal(t, 2, r.TrueRank)

		reports, err := db.Reports(r.ID)
		require.NoError(t, err)
		// the sweep runs up to the clamped k
		assert.Len(t, reports, 12)

		best, err := db.BestRank(r.ID)
		require.NoError(t, err)
		want, ok := metrics.Best(reports)
		require.True(t, ok)
		assert.Equal(t, want.Rank, best.Rank)
	}
	assert.Equal(t, "thin", runs[0].Method)
	assert.Equal(t, 0.05, runs[0].Sigma)
	assert.Equal(t, "truncated", runs[3].Method)
	assert.Equal(t, 0.1, runs[3].Sigma)

	// a second sweep over the same grid reuses the runs
	require.NoError(t, sweepCmd(context.Background(), defaults(t), args))
	runs, err = db.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}
