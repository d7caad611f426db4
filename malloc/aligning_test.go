package malloc

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

func TestAligningHeap(t *testing.T) {
	testaligning(t, NewHeapAllocator())
}

func TestAligningMultipool(t *testing.T) {
	mp := NewMultipool("aligning", NewHeapAllocator(), nil)
	testaligning(t, mp)
	_, _, alloc, _ := mp.Info()
	assert.Equal(t, int64(0), alloc)
	assert.Equal(t, 0, mp.Numoversized())
}

func TestAligningConcurrent(t *testing.T) {
	setts := lib.Settings{"minblock": 16, "numpools": 6}
	testaligning(t, NewConcurrentMultipool("aligning", NewHeapAllocator(), setts))
}

func testaligning(t *testing.T, held api.Allocator) {
	for alignment := int64(1); alignment <= 128; alignment <<= 1 {
		aa := NewAligningAllocator(alignment, held)
		require.Equal(t, alignment, aa.Alignment())
		blocks := [][]byte{}
		for size := int64(1); size <= 600; size++ {
			block, err := aa.Allocate(size)
			require.NoError(t, err)
			if len(block) != int(size) {
				t.Fatalf("expected %v, got %v", size, len(block))
			} else if !lib.Isaligned(block, alignment) {
				addr := lib.Addressof(block)
				t.Fatalf("size %v address %x not aligned to %v", size, addr, alignment)
			}
			blocks = append(blocks, block)
		}
		for _, block := range blocks {
			aa.Deallocate(block)
		}
	}
}

func TestAligningRounding(t *testing.T) {
	ca := NewCountingAllocator(NewHeapAllocator(), 0)
	aa := NewAligningAllocator(32, ca)
	block, err := aa.Allocate(33)
	require.NoError(t, err)
	assert.Equal(t, 33, len(block))
	assert.Equal(t, 64, cap(block))
	assert.Equal(t, int64(64), ca.Inuse())
	assert.Equal(t, ca, aa.Held())
	aa.Deallocate(block)
	assert.Equal(t, int64(0), ca.Inuse())

	block, err = aa.Allocate(0)
	require.NoError(t, err)
	assert.Nil(t, block)
	aa.Deallocate(block)
	assert.Equal(t, int64(1), ca.Numallocs())
}

func TestAligningPanics(t *testing.T) {
	for _, alignment := range []int64{0, -8, 3, 12, 100} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for %v", alignment)
				}
			}()
			NewAligningAllocator(alignment, NewHeapAllocator())
		}()
	}
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic for nil held allocator")
			}
		}()
		NewAligningAllocator(8, nil)
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic for misaligned memory")
			}
		}()
		NewAligningAllocator(8, skewallocator{}).Allocate(16)
	}()
}

func TestAligningFailure(t *testing.T) {
	aa := NewAligningAllocator(16, failallocator{})
	block, err := aa.Allocate(10)
	assert.Nil(t, block)
	assert.Equal(t, errTestUpstream, err)
}
