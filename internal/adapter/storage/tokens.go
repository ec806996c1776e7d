package storage

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/rl1809/things-api/internal/core/domain"
)

// newTokens builds the concurrency tokens assigned on every write: a
// random 16-byte etag and an 8-byte big-endian as-of timestamp.
func newTokens() domain.Metadata {
	etag := make([]byte, 16)
	rand.Read(etag)

	asof := make([]byte, 8)
	binary.BigEndian.PutUint64(asof, uint64(time.Now().UnixNano()))

	return domain.Metadata{Etag: etag, Asof: asof}
}
