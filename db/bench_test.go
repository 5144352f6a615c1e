package db

import (
	"fmt"
	"testing"
)

func benchKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%08d", i))
	}
	return keys
}

func openBenchDB(b *testing.B, order int) *DB {
	b.Helper()
	database, err := Open(Options{Order: order})
	if err != nil {
		b.Fatalf("open database: %v", err)
	}
	b.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func BenchmarkPut(b *testing.B) {
	for _, order := range []int{4, 16, 64} {
		b.Run(fmt.Sprintf("order=%d", order), func(b *testing.B) {
			database := openBenchDB(b, order)
			keys := benchKeys(b.N)
			value := []byte("value")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := database.Put(keys[i], value); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkGet(b *testing.B) {
	const n = 100000
	for _, order := range []int{4, 16, 64} {
		b.Run(fmt.Sprintf("order=%d", order), func(b *testing.B) {
			database := openBenchDB(b, order)
			keys := benchKeys(n)
			for _, k := range keys {
				if _, err := database.Put(k, k); err != nil {
					b.Fatal(err)
				}
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := database.Get(keys[i%n]); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPutDelete(b *testing.B) {
	database := openBenchDB(b, 16)
	keys := benchKeys(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		if _, err := database.Put(k, k); err != nil {
			b.Fatal(err)
		}
		if _, err := database.Delete(k); err != nil {
			b.Fatal(err)
		}
	}
}
