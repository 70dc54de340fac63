// Package badger implements the Result Store Gateway on BadgerDB via
// badgerhold, the teacher's persistence layer for job documents.
package badger

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// DB manages the Badger database connection underlying the gateway.
type DB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// Open opens (creating if necessary) a BadgerDB database at dataDir.
func Open(logger arbor.ILogger, dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger.Debug().Str("path", dataDir).Msg("opening badger database")

	options := badgerhold.DefaultOptions
	options.Dir = dataDir
	options.ValueDir = dataDir
	options.Logger = nil // arbor handles logging instead

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dataDir, err)
	}

	return &DB{store: store, logger: logger}, nil
}

// Store returns the underlying badgerhold store.
func (d *DB) Store() *badgerhold.Store {
	return d.store
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}
