// Package storage provides append-only audit storage backends.
//
// MemoryStorage keeps records in process and suits tests and single-shot
// CLI runs. SQLiteStorage persists records in a SQLite database with WAL
// mode, and refuses UPDATE and DELETE statements on the records table.
package storage
