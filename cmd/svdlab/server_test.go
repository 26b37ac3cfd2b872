package main

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab"
)

func newTestSession(t *testing.T, opts ...svdlab.Option) *svdlab.Session {
	t.Helper()
	opts = append([]svdlab.Option{
		svdlab.WithSize(20, 16),
		svdlab.WithRandom(2),
		svdlab.WithNoise(0.01),
		svdlab.WithRank(2),
		svdlab.WithMaxRank(5),
	}, opts...)
	l, err := svdlab.New(opts...)
	require.NoError(t, err)
	s, err := svdlab.NewSession(context.Background(), l)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, app *fiber.App, path string, v any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, sonic.Unmarshal(body, v), string(body))
	}
	return resp.StatusCode
}

func TestServer_Rank(t *testing.T) {
	s := newTestSession(t)
	app := newServer(s, t.TempDir())

	var got RankResponse
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/rank/2", &got))
	want, approx, err := s.At(2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Report.Rank)
	assert.InDelta(t, want.ErrClean, got.Report.ErrClean, 1e-12)
	require.Len(t, got.Approx, 20)
	require.Len(t, got.Approx[0], 16)
	assert.InDelta(t, approx.At(3, 5), got.Approx[3][5], 1e-12)

	test := []struct {
		name string
		path string
		code int
	}{
		{name: "too_large", path: "/api/rank/17", code: fiber.StatusBadRequest},
		{name: "zero", path: "/api/rank/0", code: fiber.StatusBadRequest},
		{name: "not_a_number", path: "/api/rank/abc", code: fiber.StatusBadRequest},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			var e ErrorResponse
			assert.Equal(t, tt.code, get(t, app, tt.path, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestServer_Spectrum(t *testing.T) {
	s := newTestSession(t)
	app := newServer(s, t.TempDir())

	var got SpectrumResponse
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/spectrum", &got))
	assert.Len(t, got.Values, 16)
	assert.Len(t, got.Energy, 16)
	assert.InDelta(t, 1.0, got.Energy[15], 1e-12)
	assert.Equal(t, 16, got.MaxRank)
	assert.Equal(t, 16, got.NumericalRank)
	assert.Greater(t, got.Values[1], 10*got.Values[2])
	for i := 1; i < len(got.Values); i++ {
		assert.LessOrEqual(t, got.Values[i], got.Values[i-1])
	}
}

func TestServer_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello"), 0o644))
	app := newServer(newTestSession(t), dir)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/hello.txt", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
}

func TestServe_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	app := newServer(newTestSession(t), t.TempDir())
	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), app, ln.Addr().String()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "failed to listen on "+ln.Addr().String())
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running although the address is taken")
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	app := newServer(newTestSession(t), t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, app, addr) }()

	// wait until the server accepts connections
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after the context was cancelled")
	}
}
