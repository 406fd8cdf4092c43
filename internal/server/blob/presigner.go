// Package blob abstracts the object store behind a Presigner interface so
// handlers never talk to S3 directly. Two implementations exist: the
// S3-compatible one used in production and an in-memory fake for tests,
// selected by construction rather than runtime shape-checking.
package blob

import (
	"context"
	"time"
)

// UploadCredential is a time-limited direct-upload capability. For POST
// policy uploads Fields carries the form fields the client must echo back;
// for plain presigned PUTs Fields is empty.
type UploadCredential struct {
	URL       string
	Method    string
	Fields    map[string]string
	Key       string
	ExpiresIn time.Duration
}

// Presigner issues time-limited capabilities against the object store.
type Presigner interface {
	// PresignGet returns a read URL for key, valid for the configured window.
	PresignGet(ctx context.Context, key string) (string, error)

	// PresignPut returns a direct-upload PUT credential for key. Size is
	// enforced server-side on confirmation, not by the credential.
	PresignPut(ctx context.Context, key string, contentType string) (*UploadCredential, error)

	// PresignPost returns a POST policy credential for key with a
	// content-length-range condition of [1, maxSize]. declaredSize is the
	// size the client announced; the store rejects anything over maxSize at
	// upload time regardless of what was declared.
	PresignPost(ctx context.Context, key string, contentType string, declaredSize, maxSize int64) (*UploadCredential, error)
}
