package postgres

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// SQLExecutor represents both sql.DB and sql.Tx
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Ensure both satisfy the interface
var (
	_ SQLExecutor = (*sql.DB)(nil)
	_ SQLExecutor = (*sql.Tx)(nil)
)

// Open connects to postgres and verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
