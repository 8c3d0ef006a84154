// Package scd walks unified timelines and emits slowly-changing dimension
// records, opening a new version only when the tracked attribute content
// changes.
package scd

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
)

// fieldSep keeps "ab"+"c" and "a"+"bc" from hashing identically.
const fieldSep = "\x1f"

// HashDiff computes the content hash over the tracked attribute subset of a
// segment's payload. The serialization is canonical and order-independent:
// tracked field names are sorted, absent fields hash as empty, and fields
// outside the tracked subset never participate. The 32-hex-char result
// matches the warehouse hash_diff column.
func HashDiff(attrs map[string]string, tracked []string) string {
	names := append([]string(nil), tracked...)
	sort.Strings(names)

	h := md5.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte(fieldSep))
		h.Write([]byte(attrs[name]))
		h.Write([]byte(fieldSep))
	}
	return hex.EncodeToString(h.Sum(nil))
}
