// Package blobstore offloads oversized AuditEntry request/response
// payloads to object storage (spec.md §4.11: "if above threshold, ... the
// full XML is offloaded to a blob reference"). Both S3 and GCS backends
// satisfy the same content-addressed BlobStore interface so pkg/audit
// doesn't know which cloud the deployment runs in.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// BlobStore persists a payload and returns a content-addressed
// reference (a "sha256:<hex>" string); Get resolves that reference back
// to the bytes.
type BlobStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// contentHash returns the hex SHA-256 digest of data and its
// "sha256:<hex>" reference form, shared by both backends.
func contentHash(data []byte) (hashStr, ref string) {
	sum := sha256.Sum256(data)
	hashStr = hex.EncodeToString(sum[:])
	return hashStr, "sha256:" + hashStr
}
