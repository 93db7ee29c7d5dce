// Package bufpool backs OMX_AllocateBuffer's core-owned storage path.
//
// A port's use_buffer wraps caller-supplied memory and never touches
// this package; allocate_buffer hands out pooled storage instead of
// calling make([]byte, n) on every request, the same hot-path
// avoidance a buffer pool on any allocate/release path exists for.
// Here the pooling is delegated to code.hybscloud.com/iobuf's
// size-tiered bounded pools rather than reimplemented over sync.Pool,
// since iobuf is built for exactly this "lots of same-shaped buffers,
// fixed-capacity hand-off" pattern, with pool exhaustion reported back
// as a semantic error the component can turn into InsufficientResources.
package bufpool

import (
	"fmt"
	"sync"

	"code.hybscloud.com/iobuf"
)

// tier names the iobuf size classes this pool set draws from. OMX
// buffer sizes for compressed media frames and PCM/raw chunks fall
// comfortably inside iobuf's Small..Huge range; every size up to the
// Small tier's 2 KiB is served from that tier, and anything larger than
// the Huge tier falls back to a dedicated allocation since a pool tier
// for it would rarely be reused.
type tier int

const (
	tierSmall tier = iota
	tierMedium
	tierBig
	tierLarge
	tierGreat
	tierHuge
	tierFallback
)

func tierFor(size int) tier {
	switch {
	case size <= 2*1024:
		return tierSmall
	case size <= 8*1024:
		return tierMedium
	case size <= 32*1024:
		return tierBig
	case size <= 128*1024:
		return tierLarge
	case size <= 512*1024:
		return tierGreat
	case size <= 2*1024*1024:
		return tierHuge
	default:
		return tierFallback
	}
}

// poolsPerTier is how many buffers each tier's bounded pool holds
// before Acquire falls back to a one-off allocation.
const poolsPerTier = 64

type smallPool = iobuf.BoundedPool[iobuf.SmallBuffer]
type mediumPool = iobuf.BoundedPool[iobuf.MediumBuffer]
type bigPool = iobuf.BoundedPool[iobuf.BigBuffer]
type largePool = iobuf.BoundedPool[iobuf.LargeBuffer]
type greatPool = iobuf.BoundedPool[iobuf.GreatBuffer]
type hugePool = iobuf.BoundedPool[iobuf.HugeBuffer]

var (
	once       sync.Once
	small      *smallPool
	medium     *mediumPool
	big        *bigPool
	large      *largePool
	great      *greatPool
	huge       *hugePool
)

func initPools() {
	small = iobuf.NewSmallBufferPool(poolsPerTier)
	small.Fill(iobuf.NewSmallBuffer)
	medium = iobuf.NewMediumBufferPool(poolsPerTier)
	medium.Fill(iobuf.NewMediumBuffer)
	big = iobuf.NewBigBufferPool(poolsPerTier)
	big.Fill(iobuf.NewBigBuffer)
	large = iobuf.NewLargeBufferPool(poolsPerTier)
	large.Fill(iobuf.NewLargeBuffer)
	great = iobuf.NewGreatBufferPool(poolsPerTier)
	great.Fill(iobuf.NewGreatBuffer)
	huge = iobuf.NewHugeBufferPool(poolsPerTier)
	huge.Fill(iobuf.NewHugeBuffer)
}

// Buffer is a core-allocated storage block. Release must be called
// exactly once, when the owning port frees the buffer
// (OMX_FreeBuffer) or tears down.
type Buffer struct {
	Bytes   []byte
	release func()
}

// Release returns the underlying storage to its pool (a no-op for a
// fallback allocation).
func (b *Buffer) Release() {
	if b.release != nil {
		b.release()
		b.release = nil
	}
}

// Acquire returns size bytes of core-owned storage.
func Acquire(size int) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("bufpool: negative size %d", size)
	}
	once.Do(initPools)

	switch tierFor(size) {
	case tierSmall:
		idx, err := small.Get()
		if err == nil {
			v := small.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { small.Put(idx) }}, nil
		}
	case tierMedium:
		idx, err := medium.Get()
		if err == nil {
			v := medium.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { medium.Put(idx) }}, nil
		}
	case tierBig:
		idx, err := big.Get()
		if err == nil {
			v := big.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { big.Put(idx) }}, nil
		}
	case tierLarge:
		idx, err := large.Get()
		if err == nil {
			v := large.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { large.Put(idx) }}, nil
		}
	case tierGreat:
		idx, err := great.Get()
		if err == nil {
			v := great.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { great.Put(idx) }}, nil
		}
	case tierHuge:
		idx, err := huge.Get()
		if err == nil {
			v := huge.Value(idx)
			return &Buffer{Bytes: v[:size], release: func() { huge.Put(idx) }}, nil
		}
	}
	// Pool exhausted (would-block) or size outside the pooled range:
	// fall back to a direct allocation rather than fail the request.
	return &Buffer{Bytes: make([]byte, size)}, nil
}
