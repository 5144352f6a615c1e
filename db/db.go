package db

import (
	"bytes"
	"sync"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"

	"github.com/conuredb/bplus/btree"
)

var (
	// ErrClosed is returned by every call made after Close
	ErrClosed = errors.New("database closed")
	// ErrKeyNotFound is returned by Get and Delete for an absent key
	ErrKeyNotFound = errors.New("key not found")
	// ErrEmptyKey is returned when a zero-length key is used
	ErrEmptyKey = errors.New("empty key")
)

// Options configures a DB
type Options struct {
	// Order is the B+Tree fanout; 0 selects btree.DefaultOrder.
	Order   int
	Logger  hclog.Logger
	Metrics *metrics.Metrics
}

// DB represents an in-memory key-value database backed by a B+Tree
type DB struct {
	mu       sync.RWMutex // guards isClosed; the tree has its own lock
	tree     *btree.Tree[string, []byte]
	logger   hclog.Logger
	metrics  *metrics.Metrics
	isClosed bool
}

// Open opens a database
func Open(opts Options) (*DB, error) {
	if opts.Order == 0 {
		opts.Order = btree.DefaultOrder
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	treeOpts := []btree.Option{btree.WithLogger(opts.Logger)}
	if opts.Metrics != nil {
		treeOpts = append(treeOpts, btree.WithMetrics(opts.Metrics))
	}
	tree, err := btree.New[string, []byte](opts.Order, treeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	opts.Logger.Debug("database opened", "order", opts.Order)
	return &DB{
		tree:    tree,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// Close closes the database and drops its contents
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.isClosed {
		return errors.New("database already closed")
	}

	db.isClosed = true
	db.tree.Clear()
	db.logger.Debug("database closed")
	return nil
}

// Get gets a value from the database
func (db *DB) Get(key []byte) ([]byte, error) {
	defer db.measure("get", time.Now())

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.usable(key); err != nil {
		return nil, err
	}

	value, ok := db.tree.Get(string(key))
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "get %q", key)
	}
	return bytes.Clone(value), nil
}

// Put puts a key-value pair in the database and reports whether an existing
// value was replaced
func (db *DB) Put(key, value []byte) (bool, error) {
	defer db.measure("put", time.Now())

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.usable(key); err != nil {
		return false, err
	}

	_, replaced := db.tree.Put(string(key), bytes.Clone(value))
	return replaced, nil
}

// Delete deletes a key from the database and returns the removed value
func (db *DB) Delete(key []byte) ([]byte, error) {
	defer db.measure("delete", time.Now())

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.usable(key); err != nil {
		return nil, err
	}

	old, ok := db.tree.Remove(string(key))
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "delete %q", key)
	}
	return old, nil
}

// Scan calls fn for every key in [from, to) in order until fn returns false.
// An empty to scans to the end of the keyspace. fn runs under the database
// and tree read locks and must not call back into the DB.
func (db *DB) Scan(from, to []byte, fn func(key, value []byte) bool) error {
	defer db.measure("scan", time.Now())

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return ErrClosed
	}

	visit := func(k string, v []byte) bool {
		return fn([]byte(k), bytes.Clone(v))
	}
	if len(to) == 0 {
		db.tree.AscendFrom(string(from), visit)
		return nil
	}
	db.tree.AscendRange(string(from), string(to), visit)
	return nil
}

// Len returns the number of keys
func (db *DB) Len() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return 0, ErrClosed
	}
	return db.tree.Len(), nil
}

// Check verifies the structure of the underlying tree
func (db *DB) Check() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return ErrClosed
	}
	if err := db.tree.Check(); err != nil {
		db.logger.Error("tree check failed", "error", err)
		return err
	}
	return nil
}

// Dump renders the tree level by level
func (db *DB) Dump() (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return "", ErrClosed
	}
	return db.tree.DebugPrint(), nil
}

// Leaves renders the leaf chain
func (db *DB) Leaves() (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return "", ErrClosed
	}
	return db.tree.LeafString(), nil
}

// Stats returns the shape of the underlying tree and publishes it as gauges
func (db *DB) Stats() (btree.Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return btree.Stats{}, ErrClosed
	}
	st := db.tree.Stats()
	if db.metrics != nil {
		db.metrics.SetGauge([]string{"db", "keys"}, float32(st.Len))
		db.metrics.SetGauge([]string{"db", "nodes"}, float32(st.Nodes))
		db.metrics.SetGauge([]string{"db", "height"}, float32(st.Height))
	}
	return st, nil
}

func (db *DB) usable(key []byte) error {
	if db.isClosed {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

func (db *DB) measure(op string, start time.Time) {
	if db.metrics == nil {
		return
	}
	db.metrics.IncrCounter([]string{"db", op}, 1)
	db.metrics.MeasureSince([]string{"db", op, "latency"}, start)
}
