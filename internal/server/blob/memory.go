package blob

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryPresigner is the in-memory test implementation of Presigner. It
// fabricates deterministic URLs and, unlike the real presigner, rejects
// declared sizes over the limit immediately, standing in for the rejection
// the store would produce at upload time.
type MemoryPresigner struct {
	mu sync.Mutex

	BaseURL  string
	Validity time.Duration

	// Issued records every key a credential was issued for, in order.
	Issued []string

	// FailNext, when set, makes the next presign call return this error.
	FailNext error
}

// NewMemoryPresigner constructs a MemoryPresigner with a fixed base URL.
func NewMemoryPresigner() *MemoryPresigner {
	return &MemoryPresigner{BaseURL: "https://blob.test", Validity: time.Hour}
}

func (p *MemoryPresigner) takeErr() error {
	err := p.FailNext
	p.FailNext = nil
	return err
}

func (p *MemoryPresigner) PresignGet(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeErr(); err != nil {
		return "", err
	}
	p.Issued = append(p.Issued, key)
	return fmt.Sprintf("%s/%s?signed=get", p.BaseURL, key), nil
}

func (p *MemoryPresigner) PresignPut(ctx context.Context, key string, contentType string) (*UploadCredential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeErr(); err != nil {
		return nil, err
	}
	p.Issued = append(p.Issued, key)
	return &UploadCredential{
		URL:       fmt.Sprintf("%s/%s?signed=put", p.BaseURL, key),
		Method:    "PUT",
		Key:       key,
		ExpiresIn: p.Validity,
	}, nil
}

func (p *MemoryPresigner) PresignPost(ctx context.Context, key string, contentType string, declaredSize, maxSize int64) (*UploadCredential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeErr(); err != nil {
		return nil, err
	}
	if declaredSize > maxSize {
		return nil, fmt.Errorf("entity too large: %d > %d", declaredSize, maxSize)
	}
	p.Issued = append(p.Issued, key)
	return &UploadCredential{
		URL:    fmt.Sprintf("%s/%s?signed=post", p.BaseURL, key),
		Method: "POST",
		Fields: map[string]string{
			"key":          key,
			"Content-Type": contentType,
		},
		Key:       key,
		ExpiresIn: p.Validity,
	}, nil
}
