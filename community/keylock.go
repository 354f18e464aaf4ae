package community

import (
	"hash/crc32"
	"sync"
)

const lockStripes = 64

// keyLock serializes operations on the same key with a fixed set of mutexes. Two keys may
// share a stripe which only costs some contention
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

func (kl *keyLock) forKey(key string) *sync.Mutex {
	return &kl.stripes[crc32.ChecksumIEEE([]byte(key))%lockStripes]
}
