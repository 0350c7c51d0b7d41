package counter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const maxConflictRetries = 100

// Config configures the Badger-backed counter.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// Shards spreads writes to one key over several records.
	Shards int
	Logger *slog.Logger
}

// BadgerCounter stores each counter as Shards int64 records
// `counter:<key>:<n>`. Writes pick a random shard; reads sum them.
type BadgerCounter struct {
	db     *badger.DB
	shards int
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (or creates) the counter database.
func Open(cfg Config) (*BadgerCounter, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent counter store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create counter directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger counter: %w", err)
	}

	shards := cfg.Shards
	if shards < 1 {
		shards = 1
	}
	return &BadgerCounter{db: db, shards: shards}, nil
}

// OpenInMemory returns a single-shard in-memory counter, for tests.
func OpenInMemory() (*BadgerCounter, error) {
	return Open(Config{InMemory: true, Shards: 1})
}

func (c *BadgerCounter) Close() error {
	return c.db.Close()
}

func shardKey(key string, shard int) []byte {
	return []byte("counter:" + key + ":" + strconv.Itoa(shard))
}

func shardPrefix(key string) []byte {
	return []byte("counter:" + key + ":")
}

func (c *BadgerCounter) Inc(ctx context.Context, key string) error {
	return c.add(ctx, key, 1)
}

func (c *BadgerCounter) Dec(ctx context.Context, key string) error {
	return c.add(ctx, key, -1)
}

func (c *BadgerCounter) add(ctx context.Context, key string, delta int64) error {
	k := shardKey(key, rand.IntN(c.shards))
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.db.Update(func(txn *badger.Txn) error {
			var cur int64
			item, err := txn.Get(k)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := item.Value(func(val []byte) error {
					cur = decode(val)
					return nil
				}); err != nil {
					return err
				}
			}
			return txn.Set(k, encode(cur+delta))
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			time.Sleep(time.Duration(attempt+1) * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("counter %s: %w", key, err)
		}
		return nil
	}
}

// Count sums every shard of key. Negative totals read as zero.
func (c *BadgerCounter) Count(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = shardPrefix(key)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				total += decode(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}

func encode(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decode(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
