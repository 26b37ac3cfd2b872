package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
)

func replCmd(ctx context.Context, cfg *config.Config, args []string) error {
	fs, f := newFlags("repl", cfg)
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
	return repl(ctx, os.Stdin, os.Stdout, s)
}

// repl reads ranks from r and prints the report of each until r is drained
// or the user quits. The factorization is computed once.
func repl(ctx context.Context, r io.Reader, w io.Writer, s *svdlab.Session) error {
	l := s.Lab()
	m, n := l.Dims()
	limit := s.Result().Decomposition.Rank()
	reader := bufio.NewReader(r)

	fmt.Fprintln(w, "=== Rank Explorer ===")
	fmt.Fprintf(w, "%s %dx%d, σ=%.3g, %s SVD\n", l.Signal(), m, n, l.Noise(), l.Method())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nRank (1-%d, default: %d, q to quit): ", limit, l.Rank())
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if err != nil && input == "" {
			if err == io.EOF {
				fmt.Fprintln(w)
				return nil
			}
			return err
		}

		switch input {
		case "q", "quit", "exit":
			fmt.Fprintln(w, "Exiting...")
			return nil
		case "":
			input = strconv.Itoa(l.Rank())
		}
		k, convErr := strconv.Atoi(input)
		if convErr != nil {
			fmt.Fprintf(w, "Invalid rank %q.\n", input)
			continue
		}
		rep, _, evalErr := s.At(k)
		if evalErr != nil {
			fmt.Fprintf(w, "Error: %v\n", evalErr)
			continue
		}
		fmt.Fprintln(w, rep)
	}
}
