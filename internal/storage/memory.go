// ABOUTME: In-memory store implementing PolicyStore and TranscriptStore
// ABOUTME: Default backend for tests and single-process use
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/coverly/advisor/internal/models"
)

// MemoryStore keeps records and transcripts in process memory. All state is
// behind an injected instance, never package-level, so tests stay isolated.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string][]models.PolicyRecord // identity -> records
	transcripts map[string]models.Transcript     // conversationID -> messages
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string][]models.PolicyRecord),
		transcripts: make(map[string]models.Transcript),
	}
}

// GetRecordsForIdentity returns the records on file, most recent first.
func (s *MemoryStore) GetRecordsForIdentity(ctx context.Context, identity string) ([]models.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[identity]
	out := make([]models.PolicyRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// SaveRecord stores a record, replacing any existing record with the same
// (identity, type). At most one active record per type is kept.
func (s *MemoryStore) SaveRecord(ctx context.Context, record models.PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[record.Identity]
	kept := records[:0]
	for _, r := range records {
		if r.Type != record.Type {
			kept = append(kept, r)
		}
	}
	s.records[record.Identity] = append(kept, record)
	return nil
}

// RenameRecord updates the display label of a record.
func (s *MemoryStore) RenameRecord(ctx context.Context, identity, recordID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records[identity] {
		if r.RecordID == recordID {
			s.records[identity][i].Label = label
			return nil
		}
	}
	return ErrRecordNotFound
}

// DeleteRecord removes a record from the identity's file.
func (s *MemoryStore) DeleteRecord(ctx context.Context, identity, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[identity]
	for i, r := range records {
		if r.RecordID == recordID {
			s.records[identity] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

// GetTranscript returns a copy of the stored transcript, oldest first.
func (s *MemoryStore) GetTranscript(ctx context.Context, conversationID string) (models.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcripts[conversationID].Clone(), nil
}

// AppendMessages appends messages to the transcript. Appending is the only
// mutation; stored messages are never edited.
func (s *MemoryStore) AppendMessages(ctx context.Context, conversationID string, messages ...models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[conversationID] = append(s.transcripts[conversationID], messages...)
	return nil
}
