package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// BadgerRepository stores msgpack-encoded entries in an embedded BadgerDB
type BadgerRepository struct {
	db *badger.DB
}

// NewBadgerRepository opens (or creates) the database in dir. An empty dir
// runs badger in memory-only mode.
func NewBadgerRepository(dir string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerRepository{db: db}, nil
}

func (b *BadgerRepository) Load(_ context.Context) (*State, error) {
	var videos, settings []byte
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		if videos, err = getValue(txn, KeyVideos); err != nil {
			return err
		}
		settings, err = getValue(txn, KeySettings)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return decodeEntries("badger", videos, settings, msgpack.Unmarshal), nil
}

func (b *BadgerRepository) Save(_ context.Context, state *State) error {
	videos, err := msgpack.Marshal(state.Videos)
	if err != nil {
		return fmt.Errorf("failed to encode videos: %w", err)
	}
	settings, err := msgpack.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(KeyVideos), videos); err != nil {
			return err
		}
		return txn.Set([]byte(KeySettings), settings)
	})
}

func (b *BadgerRepository) Close() error {
	return b.db.Close()
}

func getValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// badgerLogger routes badger warnings and errors to the standard logger
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (badgerLogger) Infof(string, ...interface{})        {}
func (badgerLogger) Debugf(string, ...interface{})       {}
