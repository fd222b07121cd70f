// Package db provides the SQLite metastore pools and migration support.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// metastoreDSN builds the hardened DSN shared by both pools: WAL journal,
// five-second busy timeout, NORMAL synchronous, and enforced foreign keys.
// The write pool additionally takes the write lock at BEGIN
// (_txlock=immediate) so its transactions never upgrade mid-statement.
func metastoreDSN(path string, write bool) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "on")
	if write {
		q.Set("_txlock", "immediate")
	}
	return path + "?" + q.Encode()
}

func openPool(path string, write bool, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite3", metastoreDSN(path, write))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return pool, nil
}

// OpenSQLitePair opens the metastore's two pools over one file: a
// single-connection write pool that serializes state-machine transactions,
// and a read pool for queries. A readMaxOpen of 0 defaults to 4.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = openPool(path, true, 1)
	if err != nil {
		return nil, nil, err
	}
	if readMaxOpen <= 0 {
		readMaxOpen = 4
	}
	readDB, err = openPool(path, false, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}
