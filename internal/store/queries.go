package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yyyoichi/svdlab/internal/metrics"
)

var ErrNotFound = errors.New("not found")

const reportColumns = "rank, energy, err_clean, err_noisy, rel_clean, mse, gain, tail_bound"

func scanReport(s interface{ Scan(...any) error }) (metrics.Report, error) {
	var r metrics.Report
	err := s.Scan(&r.Rank, &r.Energy, &r.ErrClean, &r.ErrNoisy, &r.RelClean, &r.MSE, &r.Gain, &r.TailBound)
	return r, err
}

// Reports returns the stored reports of a run ordered by rank.
func (d *DB) Reports(runID int64) ([]metrics.Report, error) {
	rows, err := d.db.Query("SELECT "+reportColumns+" FROM rank_errors WHERE run_id = ? ORDER BY rank", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var reports []metrics.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// BestRank returns the report with the smallest error to the clean signal.
func (d *DB) BestRank(runID int64) (metrics.Report, error) {
	row := d.db.QueryRow("SELECT "+reportColumns+" FROM rank_errors WHERE run_id = ? ORDER BY err_clean ASC, rank ASC LIMIT 1", runID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return metrics.Report{}, fmt.Errorf("%w: run %d has no reports", ErrNotFound, runID)
	}
	if err != nil {
		return metrics.Report{}, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// Runs returns every stored run, oldest first.
func (d *DB) Runs() ([]Run, error) {
	rows, err := d.db.Query(`
		SELECT id, signal, n_rows, n_cols, method, sigma, seed, true_rank, created_at
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var seed int64
		if err := rows.Scan(&r.ID, &r.Signal, &r.Rows, &r.Cols, &r.Method, &r.Sigma, &seed, &r.TrueRank, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
