package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	blobDataPrefix = "blob"
	blobMetaPrefix = "blobmeta"
	queuePrefix    = "queue"
	queueIDSeq     = "queueseq"
)

// makeBlobDataKey generates a key for a blob's content by name.
func makeBlobDataKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", blobDataPrefix, name))
}

// makeBlobMetaKey generates a key for a blob's metadata by name.
func makeBlobMetaKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", blobMetaPrefix, name))
}

// makeQueueKey generates a key for a queued message.
// The ID is written in BigEndian order so lexicographic iteration visits
// messages in enqueue order.
func makeQueueKey(id uint64) []byte {
	prefix := queuePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}

// queueKeyID extracts the message ID from a queue key.
func queueKeyID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(queuePrefix)+1:])
}
