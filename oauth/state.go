package oauth

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-identity"
)

// StateRecord is the ephemeral, single-use correlation record for one
// in-flight authorization attempt, keyed by the state token.
type StateRecord struct {
	State        string
	Provider     identity.ProviderCode
	CodeVerifier string
	Nonce        string
	RedirectURI  string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// StateStore persists state records across the provider redirect. Get and
// Consume return (nil, nil) when no record exists. Consume is an atomic
// fetch-and-delete: of two concurrent calls for the same state, exactly one
// observes the record.
type StateStore interface {
	Save(ctx context.Context, record StateRecord) error
	Get(ctx context.Context, state string) (*StateRecord, error)
	Consume(ctx context.Context, state string) (*StateRecord, error)
}

// MemoryStateStore is a mutex-guarded in-memory StateStore.
type MemoryStateStore struct {
	mu      sync.Mutex
	records map[string]StateRecord
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		records: make(map[string]StateRecord),
	}
}

// Save stores the record under its state token.
func (s *MemoryStateStore) Save(_ context.Context, record StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.State] = record
	return nil
}

// Get returns the record without consuming it.
func (s *MemoryStateStore) Get(_ context.Context, state string) (*StateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[state]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Consume removes and returns the record in one critical section.
func (s *MemoryStateStore) Consume(_ context.Context, state string) (*StateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[state]
	if !ok {
		return nil, nil
	}

	delete(s.records, state)
	return &record, nil
}

// PurgeExpired drops records whose expiry is at or before now. Passive
// expiry also happens at callback validation; this keeps the map bounded.
func (s *MemoryStateStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for state, record := range s.records {
		if !record.ExpiresAt.After(now) {
			delete(s.records, state)
			purged++
		}
	}
	return purged
}

var _ StateStore = (*MemoryStateStore)(nil)
