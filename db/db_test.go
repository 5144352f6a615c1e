package db

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/conuredb/bplus/btree"
)

func openTestDB(t *testing.T, opts Options) *DB {
	t.Helper()
	database, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func TestOpenRejectsSmallOrder(t *testing.T) {
	_, err := Open(Options{Order: 2})
	require.Error(t, err)
	require.True(t, errors.Is(err, btree.ErrInvalidOrder))
}

func TestOpenDefaults(t *testing.T) {
	database := openTestDB(t, Options{})
	st, err := database.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, st.Len)
	require.Equal(t, 0, st.Height)
}

func TestSingleKeyValue(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{Order: 4})

	replaced, err := database.Put([]byte("test-key"), []byte("test-value"))
	re.NoError(err)
	re.False(replaced)

	value, err := database.Get([]byte("test-key"))
	re.NoError(err)
	re.Equal([]byte("test-value"), value)

	replaced, err = database.Put([]byte("test-key"), []byte("other"))
	re.NoError(err)
	re.True(replaced)

	old, err := database.Delete([]byte("test-key"))
	re.NoError(err)
	re.Equal([]byte("other"), old)

	_, err = database.Get([]byte("test-key"))
	re.True(errors.Is(err, ErrKeyNotFound))
	_, err = database.Delete([]byte("test-key"))
	re.True(errors.Is(err, ErrKeyNotFound))

	n, err := database.Len()
	re.NoError(err)
	re.Zero(n)
	re.NoError(database.Check())
	st, err := database.Stats()
	re.NoError(err)
	re.Zero(st.Nodes)
}

func TestValuesAreCopied(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{Order: 4})

	value := []byte("abc")
	_, err := database.Put([]byte("k"), value)
	re.NoError(err)
	value[0] = 'x'

	got, err := database.Get([]byte("k"))
	re.NoError(err)
	re.Equal([]byte("abc"), got)
	got[0] = 'y'

	got, err = database.Get([]byte("k"))
	re.NoError(err)
	re.Equal([]byte("abc"), got)
}

func TestEmptyKey(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{})

	_, err := database.Put(nil, []byte("v"))
	re.ErrorIs(err, ErrEmptyKey)
	_, err = database.Get([]byte{})
	re.ErrorIs(err, ErrEmptyKey)
	_, err = database.Delete(nil)
	re.ErrorIs(err, ErrEmptyKey)
}

func TestClosed(t *testing.T) {
	re := require.New(t)
	database, err := Open(Options{})
	re.NoError(err)
	_, err = database.Put([]byte("k"), []byte("v"))
	re.NoError(err)

	re.NoError(database.Close())
	re.Error(database.Close())

	_, err = database.Get([]byte("k"))
	re.ErrorIs(err, ErrClosed)
	_, err = database.Put([]byte("k"), []byte("v"))
	re.ErrorIs(err, ErrClosed)
	_, err = database.Delete([]byte("k"))
	re.ErrorIs(err, ErrClosed)
	re.ErrorIs(database.Scan(nil, nil, func(_, _ []byte) bool { return true }), ErrClosed)
	re.ErrorIs(database.Check(), ErrClosed)
	_, err = database.Len()
	re.ErrorIs(err, ErrClosed)
	_, err = database.Dump()
	re.ErrorIs(err, ErrClosed)
	_, err = database.Leaves()
	re.ErrorIs(err, ErrClosed)
	_, err = database.Stats()
	re.ErrorIs(err, ErrClosed)
}

func TestIncrementalInserts(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{Order: 5})

	for i := 0; i < 200; i++ {
		key := []byte(fmt.Sprintf("k%03d", i))
		value := []byte(fmt.Sprintf("v%03d", i))
		_, err := database.Put(key, value)
		re.NoError(err, "put entry %d", i)

		got, err := database.Get(key)
		re.NoError(err, "get entry %d", i)
		re.Equal(value, got)
	}
	re.NoError(database.Check())

	for i := 0; i < 200; i += 2 {
		_, err := database.Delete([]byte(fmt.Sprintf("k%03d", i)))
		re.NoError(err)
	}
	re.NoError(database.Check())

	n, err := database.Len()
	re.NoError(err)
	re.Equal(100, n)
}

func TestScan(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{Order: 4})
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, err := database.Put([]byte(k), []byte("v"+k))
		re.NoError(err)
	}

	collect := func(from, to string, limit int) []string {
		var keys []string
		err := database.Scan([]byte(from), []byte(to), func(key, value []byte) bool {
			re.Equal("v"+string(key), string(value))
			keys = append(keys, string(key))
			return limit == 0 || len(keys) < limit
		})
		re.NoError(err)
		return keys
	}

	re.Equal([]string{"a", "b", "c", "d", "e", "f", "g"}, collect("", "", 0))
	re.Equal([]string{"c", "d", "e"}, collect("c", "f", 0))
	re.Equal([]string{"c"}, collect("bb", "d", 1))
	re.Equal([]string{"e", "f", "g"}, collect("e", "", 0))
	re.Empty(collect("f", "c", 0))
	re.Empty(collect("h", "", 0))
}

func TestDumpAndLeaves(t *testing.T) {
	re := require.New(t)
	database := openTestDB(t, Options{Order: 4})

	leaves, err := database.Leaves()
	re.NoError(err)
	re.Equal("{}", leaves)

	for _, k := range []string{"180", "733", "406", "459", "408"} {
		_, err := database.Put([]byte(k), nil)
		re.NoError(err)
	}
	leaves, err = database.Leaves()
	re.NoError(err)
	re.Equal("{[180 406 408], [459 733]}", leaves)

	dump, err := database.Dump()
	re.NoError(err)
	re.Equal(" |180 459| \n |180 406 408|  |459 733| \n", dump)
}

func TestStatsMetrics(t *testing.T) {
	re := require.New(t)
	sink := metrics.NewInmemSink(time.Minute, time.Minute)
	conf := metrics.DefaultConfig("test")
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false
	m, err := metrics.New(conf, sink)
	re.NoError(err)

	database := openTestDB(t, Options{Order: 4, Metrics: m})
	for i := 0; i < 20; i++ {
		_, err := database.Put([]byte(fmt.Sprintf("%02d", i)), nil)
		re.NoError(err)
	}
	_, err = database.Get([]byte("05"))
	re.NoError(err)
	_, err = database.Delete([]byte("05"))
	re.NoError(err)

	st, err := database.Stats()
	re.NoError(err)
	re.Equal(19, st.Len)

	var puts, gets, deletes float64
	var keys float32
	for _, interval := range sink.Data() {
		if c, ok := interval.Counters["test.db.put"]; ok {
			puts += c.Sum
		}
		if c, ok := interval.Counters["test.db.get"]; ok {
			gets += c.Sum
		}
		if c, ok := interval.Counters["test.db.delete"]; ok {
			deletes += c.Sum
		}
		if g, ok := interval.Gauges["test.db.keys"]; ok {
			keys = g.Value
		}
	}
	re.Equal(float64(20), puts)
	re.Equal(float64(1), gets)
	re.Equal(float64(1), deletes)
	re.Equal(float32(19), keys)
}

func TestConcurrentReads(t *testing.T) {
	database := openTestDB(t, Options{Order: 6})

	const numEntries = 50
	for i := 0; i < numEntries; i++ {
		_, err := database.Put([]byte(fmt.Sprintf("cr-key-%d", i)), []byte(fmt.Sprintf("cr-val-%d", i)))
		require.NoError(t, err)
	}

	const numReaders = 5
	const readsPerReader = 20

	var wg sync.WaitGroup
	errCh := make(chan error, numReaders)
	for r := 0; r < numReaders; r++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()
			for i := 0; i < readsPerReader; i++ {
				idx := (readerID*2 + i) % numEntries
				value, err := database.Get([]byte(fmt.Sprintf("cr-key-%d", idx)))
				if err != nil {
					errCh <- fmt.Errorf("reader %d: get entry %d: %w", readerID, idx, err)
					return
				}
				if !bytes.Equal(value, []byte(fmt.Sprintf("cr-val-%d", idx))) {
					errCh <- fmt.Errorf("reader %d: value mismatch for entry %d", readerID, idx)
					return
				}
			}
		}(r)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent read error: %v", err)
	}
}
