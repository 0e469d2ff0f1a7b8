// Package store holds extraction artifacts between requests, keyed by
// unguessable capability tokens and bounded by a TTL.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zach2017/pdfbundle/internal/pdf/imaging"
)

const (
	// DefaultTTL is how long a bundle stays retrievable.
	DefaultTTL = 900 * time.Second

	// DefaultCapacity bounds how many bundles are held at once.
	DefaultCapacity = 256
)

// Bundle is the artifact set of one extraction. It is read-only after Put;
// the store never mutates or partially clears a bundle a caller can still
// observe.
type Bundle struct {
	Token       string
	CreatedAt   time.Time
	PDFBytes    []byte
	Attachments map[string][]byte
	Images      []imaging.Record
}

// Image returns the image record with the given id.
func (b *Bundle) Image(id string) (*imaging.Record, bool) {
	for i := range b.Images {
		if b.Images[i].ID == id {
			return &b.Images[i], true
		}
	}
	return nil, false
}

// Store is a mutex-guarded token->bundle map. Expired bundles are swept
// lazily at the start of every store-touching call; there is no timer.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	bundles  map[string]*Bundle

	now func() time.Time // injected for TTL tests
}

// New creates a store with the given TTL and capacity; non-positive values
// fall back to the defaults.
func New(ttl time.Duration, capacity int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		ttl:      ttl,
		capacity: capacity,
		bundles:  make(map[string]*Bundle),
		now:      time.Now,
	}
}

// Put stores the bundle under a fresh unguessable token and returns it.
// Possession of the token is the sole access control.
func (s *Store) Put(bundle *Bundle) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	token := uuid.NewString()
	bundle.Token = token
	bundle.CreatedAt = s.now()
	s.bundles[token] = bundle

	if len(s.bundles) > s.capacity {
		s.evictOldestLocked()
	}

	return token
}

// Get returns the bundle for a token. Expired, evicted, and never-issued
// tokens are indistinguishable: all report absent.
func (s *Store) Get(token string) (*Bundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	bundle, ok := s.bundles[token]
	return bundle, ok
}

// TTL reports the configured bundle lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Len reports how many live bundles the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	return len(s.bundles)
}

func (s *Store) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for token, bundle := range s.bundles {
		if bundle.CreatedAt.Before(cutoff) {
			delete(s.bundles, token)
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	for token, bundle := range s.bundles {
		if oldest == "" || bundle.CreatedAt.Before(oldestAt) {
			oldest = token
			oldestAt = bundle.CreatedAt
		}
	}
	if oldest != "" {
		delete(s.bundles, oldest)
	}
}
