package fake

import "sync"

// shardSize bounds the span one mutex guards, the same tradeoff the
// teacher's backend.Memory makes between parallelism and lock overhead.
const shardSize = 64 * 1024

// shardedBytes is an in-memory, concurrency-safe byte store backing every
// Buffer and Image the fake engine hands out (pipes keep a packet list
// instead). It is backend/mem.go's
// Memory type, generalized from a block device's ReadAt/WriteAt to the
// plain byte ranges a simulated memory object needs.
type shardedBytes struct {
	data   []byte
	shards []sync.RWMutex
}

func newShardedBytes(size int) *shardedBytes {
	if size < 0 {
		size = 0
	}
	numShards := (size + shardSize - 1) / shardSize
	if numShards == 0 {
		numShards = 1
	}
	return &shardedBytes{
		data:   make([]byte, size),
		shards: make([]sync.RWMutex, numShards),
	}
}

func (m *shardedBytes) shardRange(off, length int) (start, end int) {
	if length == 0 {
		length = 1
	}
	start = off / shardSize
	end = (off + length - 1) / shardSize
	if end >= len(m.shards) {
		end = len(m.shards) - 1
	}
	if start > end {
		start = end
	}
	return start, end
}

func (m *shardedBytes) Len() int { return len(m.data) }

func (m *shardedBytes) ReadAt(dst []byte, off int) int {
	if off >= len(m.data) {
		return 0
	}
	avail := len(m.data) - off
	if len(dst) > avail {
		dst = dst[:avail]
	}
	start, end := m.shardRange(off, len(dst))
	for i := start; i <= end; i++ {
		m.shards[i].RLock()
	}
	n := copy(dst, m.data[off:off+len(dst)])
	for i := start; i <= end; i++ {
		m.shards[i].RUnlock()
	}
	return n
}

func (m *shardedBytes) WriteAt(src []byte, off int) int {
	if off >= len(m.data) {
		return 0
	}
	avail := len(m.data) - off
	if len(src) > avail {
		src = src[:avail]
	}
	start, end := m.shardRange(off, len(src))
	for i := start; i <= end; i++ {
		m.shards[i].Lock()
	}
	n := copy(m.data[off:off+len(src)], src)
	for i := start; i <= end; i++ {
		m.shards[i].Unlock()
	}
	return n
}
