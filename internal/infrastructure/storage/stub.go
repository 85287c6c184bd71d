package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
)

var _ auctionapp.ImageStorage = (*StubImageStorage)(nil)

// StubImageStorage hands out fake URLs when object storage is disabled.
// Uploaded keys are remembered so the attach flow works in development.
type StubImageStorage struct {
	BaseURL string
	Expiry  time.Duration

	mu      sync.Mutex
	objects map[string]struct{}
}

func NewStubImageStorage() *StubImageStorage {
	return &StubImageStorage{
		BaseURL: "http://localhost:8080/_stub-storage",
		Expiry:  15 * time.Minute,
		objects: make(map[string]struct{}),
	}
}

func (s *StubImageStorage) GenerateUploadURL(_ context.Context, key, _ string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	s.mu.Lock()
	s.objects[key] = struct{}{}
	s.mu.Unlock()
	expiresAt := time.Now().Add(s.Expiry)
	return s.signed("upload", key, expiresAt), expiresAt, nil
}

func (s *StubImageStorage) GenerateViewURL(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	expiresAt := time.Now().Add(s.Expiry)
	return s.signed("view", key, expiresAt), expiresAt, nil
}

// ObjectExists is true for every key an upload URL was issued for
func (s *StubImageStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *StubImageStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *StubImageStorage) signed(op, key string, expiresAt time.Time) string {
	q := url.Values{}
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.BaseURL + "/" + op + "/" + key + "?" + q.Encode()
}
