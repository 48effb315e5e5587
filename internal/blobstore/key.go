package blobstore

import (
	"crypto/sha1"
	"encoding/hex"
)

// OptimizedKey derives the public object key for a source reference. The key
// is content-addressed by the reference itself, so re-converting the same
// source always lands on the same path.
func OptimizedKey(reference string) string {
	sum := sha1.Sum([]byte(reference))
	return "optimized/" + hex.EncodeToString(sum[:]) + ".webp"
}
