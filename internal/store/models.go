package store

import "time"

// Run identifies one pipeline configuration. The combination of Signal,
// Rows, Cols, Method, Sigma and Seed is unique.
type Run struct {
	ID       int64
	Signal   string
	Rows     int
	Cols     int
	Method   string
	Sigma    float64
	Seed     uint64
	TrueRank int
	Created  time.Time
}
