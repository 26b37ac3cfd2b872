package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/rank"
	"github.com/yyyoichi/svdlab/internal/svd"
	"gonum.org/v1/gonum/mat"
)

// RankResponse is the body of GET /api/rank/:k.
type RankResponse struct {
	Report metrics.Report `json:"report"`
	// Approx holds the rows of the rank-k approximation.
	Approx [][]float64 `json:"approx"`
}

// SpectrumResponse is the body of GET /api/spectrum.
type SpectrumResponse struct {
	Values        []float64      `json:"values"`
	Energy        []float64      `json:"energy"`
	Tolerance     float64        `json:"tolerance"`
	NumericalRank int            `json:"numerical_rank"`
	MaxRank       int            `json:"max_rank"`
	Estimates     rank.Estimates `json:"estimates"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func serveCmd(ctx context.Context, cfg *config.Config, args []string) error {
	fs, f := newFlags("serve", cfg)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	if err := f.parse(fs, args); err != nil {
		return err
	}
	l, err := f.lab()
	if err != nil {
		return err
	}
	s, err := svdlab.NewSession(ctx, l)
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeOutputs(cfg.OutDir, l, res); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info().Str("addr", cfg.Addr).Str("dir", cfg.OutDir).Msg("HTTP server starting")
	return serve(ctx, newServer(s, cfg.OutDir), cfg.Addr)
}

// serve runs app on addr until ctx is done, then shuts it down. A listener
// that fails, for example on a port already in use, ends serve with the
// error.
func serve(ctx context.Context, app *fiber.App, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		if err == nil {
			return nil
		}
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// newServer exposes the session over HTTP and serves dir as static files.
func newServer(s *svdlab.Session, dir string) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(compress.New())

	h := &handler{session: s}
	api := app.Group("/api")
	api.Get("/rank/:k", h.rank)
	api.Get("/spectrum", h.spectrum)
	app.Static("/", dir)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Msg("Request failed")
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

type handler struct {
	session *svdlab.Session
}

func (h *handler) rank(c *fiber.Ctx) error {
	k, err := c.ParamsInt("k")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "rank must be an integer")
	}
	rep, approx, err := h.session.At(k)
	switch {
	case errors.Is(err, svd.ErrRankTooLarge), errors.Is(err, svd.ErrRankOutOfRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(RankResponse{Report: rep, Approx: rows(approx)})
}

func (h *handler) spectrum(c *fiber.Ctx) error {
	res := h.session.Result()
	return c.JSON(SpectrumResponse{
		Values:        res.Spectrum,
		Energy:        svd.CumulativeEnergy(res.Spectrum),
		Tolerance:     res.Tolerance,
		NumericalRank: res.NumericalRank,
		MaxRank:       res.Decomposition.Rank(),
		Estimates:     res.Estimates,
	})
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range r {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
