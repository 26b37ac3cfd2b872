package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yyyoichi/svdlab/internal/metrics"
)

// InsertRun inserts or gets an existing run and returns its ID.
func (d *DB) InsertRun(r Run) (int64, error) {
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM runs WHERE signal = ? AND n_rows = ? AND n_cols = ? AND method = ? AND sigma = ? AND seed = ?",
		r.Signal, r.Rows, r.Cols, r.Method, r.Sigma, int64(r.Seed),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query run: %w", err)
	}

	result, err := d.db.Exec(
		"INSERT INTO runs (signal, n_rows, n_cols, method, sigma, seed, true_rank) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.Signal, r.Rows, r.Cols, r.Method, r.Sigma, int64(r.Seed), r.TrueRank,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// InsertReports stores the per-rank reports of a run in one transaction.
// Existing rows for the same rank are replaced.
func (d *DB) InsertReports(runID int64, reports []metrics.Report) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO rank_errors
			(run_id, rank, energy, err_clean, err_noisy, rel_clean, mse, gain, tail_bound)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		if _, err := stmt.Exec(runID, r.Rank, r.Energy, r.ErrClean, r.ErrNoisy, r.RelClean, r.MSE, r.Gain, r.TailBound); err != nil {
			return fmt.Errorf("failed to insert rank %d: %w", r.Rank, err)
		}
	}
	return tx.Commit()
}
