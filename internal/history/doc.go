// Package history provides SQLite-based storage for past runs.
//
// Each firing pass is stored as one run row plus one outcome row per
// account. The history answers the two questions an operator has after a
// missed morning: did the pass fire, and which accounts failed.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of
// other databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. A handful of rows per day needs no more than that
// 4. WAL mode provides good concurrent read performance
package history
