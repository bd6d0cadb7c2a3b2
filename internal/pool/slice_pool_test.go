package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetUint64Slice(t *testing.T) {
	t.Run("returns slice with correct size", func(t *testing.T) {
		slice, cleanup := GetUint64Slice(100)
		defer cleanup()

		require.Equal(t, 100, len(slice))
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("reuses pooled slice when capacity sufficient", func(t *testing.T) {
		slice1, cleanup1 := GetUint64Slice(50)
		ptr1 := &slice1[0]
		cleanup1()

		slice2, cleanup2 := GetUint64Slice(50)
		defer cleanup2()
		ptr2 := &slice2[0]

		require.Equal(t, ptr1, ptr2, "should reuse same underlying array")
	})

	t.Run("allocates new slice when capacity insufficient", func(t *testing.T) {
		_, cleanup1 := GetUint64Slice(10)
		cleanup1()

		slice2, cleanup2 := GetUint64Slice(1000)
		defer cleanup2()

		require.Equal(t, 1000, len(slice2))
		require.GreaterOrEqual(t, cap(slice2), 1000)
	})

	t.Run("cleanup returns slice to pool", func(t *testing.T) {
		slice, cleanup := GetUint64Slice(100)
		require.NotNil(t, slice)

		cleanup()
	})
}

func TestGetByteSlice(t *testing.T) {
	t.Run("returns slice with correct size", func(t *testing.T) {
		slice, cleanup := GetByteSlice(100)
		defer cleanup()

		require.Equal(t, 100, len(slice))
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("reuses pooled slice when capacity sufficient", func(t *testing.T) {
		slice1, cleanup1 := GetByteSlice(50)
		ptr1 := &slice1[0]
		cleanup1()

		slice2, cleanup2 := GetByteSlice(50)
		defer cleanup2()
		ptr2 := &slice2[0]

		require.Equal(t, ptr1, ptr2, "should reuse same underlying array")
	})

	t.Run("allocates new slice when capacity insufficient", func(t *testing.T) {
		_, cleanup1 := GetByteSlice(10)
		cleanup1()

		slice2, cleanup2 := GetByteSlice(1000)
		defer cleanup2()

		require.Equal(t, 1000, len(slice2))
		require.GreaterOrEqual(t, cap(slice2), 1000)
	})

	t.Run("cleanup returns slice to pool", func(t *testing.T) {
		slice, cleanup := GetByteSlice(100)
		require.NotNil(t, slice)

		cleanup()
	})
}

func TestSlicePoolConcurrency(t *testing.T) {
	t.Run("concurrent access to uint64 pool", func(t *testing.T) {
		const goroutines = 100
		done := make(chan bool, goroutines)

		for i := 0; i < goroutines; i++ {
			go func() {
				slice, cleanup := GetUint64Slice(50)
				defer cleanup()

				for j := range slice {
					slice[j] = uint64(j)
				}

				done <- true
			}()
		}

		for i := 0; i < goroutines; i++ {
			<-done
		}
	})

	t.Run("concurrent access to byte pool", func(t *testing.T) {
		const goroutines = 100
		done := make(chan bool, goroutines)

		for i := 0; i < goroutines; i++ {
			go func() {
				slice, cleanup := GetByteSlice(50)
				defer cleanup()

				for j := range slice {
					slice[j] = byte(j)
				}

				done <- true
			}()
		}

		for i := 0; i < goroutines; i++ {
			<-done
		}
	})
}
