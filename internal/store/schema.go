package store

const schema = `
-- One pipeline configuration
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    signal TEXT NOT NULL,
    n_rows INTEGER NOT NULL,
    n_cols INTEGER NOT NULL,
    method TEXT NOT NULL,
    sigma REAL NOT NULL,
    seed INTEGER NOT NULL,
    true_rank INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(signal, n_rows, n_cols, method, sigma, seed)
);

-- Per-rank evaluation of a run
CREATE TABLE IF NOT EXISTS rank_errors (
    run_id INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    energy REAL NOT NULL,
    err_clean REAL NOT NULL,
    err_noisy REAL NOT NULL,
    rel_clean REAL NOT NULL,
    mse REAL NOT NULL,
    gain REAL NOT NULL,
    tail_bound REAL NOT NULL,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_method_sigma ON runs(method, sigma);
`
