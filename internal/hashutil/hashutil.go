// Package hashutil provides the default Hasher collaborator: a running
// MD5 digest, matching spec §3's per-Leg and session-level "running MD5"
// state.
package hashutil

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
)

// MD5 wraps crypto/md5 behind the transload.Hasher interface: Write feeds
// bytes in, Sum returns the hex digest once, and is safe to call only
// after writing has finished.
type MD5 struct {
	h hash.Hash
}

// NewMD5 returns a ready-to-use running MD5 hash.
func NewMD5() *MD5 {
	return &MD5{h: md5.New()}
}

// Write feeds chunk into the running digest. Never returns an error;
// hash.Hash.Write never fails.
func (m *MD5) Write(chunk []byte) {
	m.h.Write(chunk)
}

// Sum returns the lowercase hex digest of everything written so far.
func (m *MD5) Sum() string {
	return hex.EncodeToString(m.h.Sum(nil))
}
