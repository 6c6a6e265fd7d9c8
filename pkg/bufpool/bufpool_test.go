package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("UsesRequestedSize", func(t *testing.T) {
		pool := New(1024)

		require.Equal(t, 1024, pool.Size())
		assert.Len(t, pool.Get(), 1024)
	})

	t.Run("ZeroSizeFallsBackToDefault", func(t *testing.T) {
		pool := New(0)

		require.Equal(t, DefaultChunkSize, pool.Size())
		assert.Len(t, pool.Get(), DefaultChunkSize)
	})

	t.Run("NegativeSizeFallsBackToDefault", func(t *testing.T) {
		pool := New(-1)

		assert.Equal(t, DefaultChunkSize, pool.Size())
	})
}

func TestGetAndPut(t *testing.T) {
	t.Run("GetReturnsFullLengthBuffer", func(t *testing.T) {
		pool := New(512)

		buf := pool.Get()
		defer pool.Put(buf)

		assert.Len(t, buf, 512)
		assert.Equal(t, 512, cap(buf))
	})

	t.Run("ReusedBufferRegainsFullLength", func(t *testing.T) {
		pool := New(512)

		buf := pool.Get()
		pool.Put(buf[:7])

		again := pool.Get()
		assert.Len(t, again, 512)
	})

	t.Run("IgnoresForeignBuffers", func(t *testing.T) {
		pool := New(512)

		require.NotPanics(t, func() {
			pool.Put(nil)
			pool.Put([]byte{})
			pool.Put(make([]byte, 2048))
		})

		buf := pool.Get()
		assert.Len(t, buf, 512)
		assert.Equal(t, 512, cap(buf))
	})

	t.Run("GetPutGetSequence", func(t *testing.T) {
		pool := New(256)

		for i := 0; i < 5; i++ {
			buf := pool.Get()
			require.Len(t, buf, 256)
			pool.Put(buf)
		}
	})
}

func TestConcurrency(t *testing.T) {
	t.Run("ConcurrentGetAndPut", func(t *testing.T) {
		pool := New(1024)

		const numGoroutines = 10
		const iterations = 100

		var wg sync.WaitGroup
		wg.Add(numGoroutines)

		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()

				for j := 0; j < iterations; j++ {
					buf := pool.Get()
					assert.Len(t, buf, 1024)
					buf[0] = byte(id)
					pool.Put(buf)
				}
			}(i)
		}

		wg.Wait()
	})
}

func BenchmarkGetPut(b *testing.B) {
	pool := New(1024)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := pool.Get()
			pool.Put(buf)
		}
	})
}
