// ABOUTME: Charm KV policy store for persistent, cloud-syncable records
// ABOUTME: One key per (identity, record), JSON values, prefix-scanned on read
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"

	"github.com/coverly/advisor/internal/models"
)

const policyKeyPrefix = "policy:"

// CharmPolicyStore persists policy records in a charm KV database. Values
// survive process restarts and sync across machines when a charm account is
// linked.
type CharmPolicyStore struct {
	db *kv.KV
	mu sync.Mutex
}

// NewCharmPolicyStore opens (or creates) the named charm KV database.
func NewCharmPolicyStore(dbName string) (*CharmPolicyStore, error) {
	db, err := kv.OpenWithDefaults(dbName)
	if err != nil {
		return nil, fmt.Errorf("storage: open charm kv: %w", err)
	}
	// Pull latest state; failure here just means we start from local data.
	_ = db.Sync()
	return &CharmPolicyStore{db: db}, nil
}

// Close syncs pending writes and closes the database.
func (s *CharmPolicyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.db.Sync()
	return s.db.Close()
}

func policyKey(identity, recordID string) string {
	return policyKeyPrefix + identity + ":" + recordID
}

// GetRecordsForIdentity scans the identity's key prefix, most recent first.
func (s *CharmPolicyStore) GetRecordsForIdentity(ctx context.Context, identity string) ([]models.PolicyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordsLocked(identity)
}

// recordsLocked scans records for an identity. Callers must hold s.mu.
func (s *CharmPolicyStore) recordsLocked(identity string) ([]models.PolicyRecord, error) {
	keys, err := s.db.Keys()
	if err != nil {
		return nil, fmt.Errorf("storage: list charm keys: %w", err)
	}

	prefix := policyKeyPrefix + identity + ":"
	var records []models.PolicyRecord
	for _, key := range keys {
		if !strings.HasPrefix(string(key), prefix) {
			continue
		}
		value, err := s.db.Get(key)
		if err != nil {
			return nil, fmt.Errorf("storage: read record %s: %w", key, err)
		}
		var record models.PolicyRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil, fmt.Errorf("storage: decode record %s: %w", key, err)
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

// SaveRecord writes a record, replacing any existing record of the same
// type for the identity.
func (s *CharmPolicyStore) SaveRecord(ctx context.Context, record models.PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.recordsLocked(record.Identity)
	if err != nil {
		return err
	}

	for _, r := range existing {
		if r.Type == record.Type && r.RecordID != record.RecordID {
			if err := s.db.Delete([]byte(policyKey(r.Identity, r.RecordID))); err != nil {
				return fmt.Errorf("storage: replace record: %w", err)
			}
		}
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: encode record: %w", err)
	}
	if err := s.db.Set([]byte(policyKey(record.Identity, record.RecordID)), value); err != nil {
		return fmt.Errorf("storage: write record: %w", err)
	}
	return nil
}

// RenameRecord updates a record's display label in place.
func (s *CharmPolicyStore) RenameRecord(ctx context.Context, identity, recordID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(policyKey(identity, recordID))
	value, err := s.db.Get(key)
	if err != nil || len(value) == 0 {
		return ErrRecordNotFound
	}
	var record models.PolicyRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return fmt.Errorf("storage: decode record: %w", err)
	}
	record.Label = label
	updated, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: encode record: %w", err)
	}
	if err := s.db.Set(key, updated); err != nil {
		return fmt.Errorf("storage: write record: %w", err)
	}
	return nil
}

// DeleteRecord removes a record from the identity's file.
func (s *CharmPolicyStore) DeleteRecord(ctx context.Context, identity, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(policyKey(identity, recordID))
	if value, err := s.db.Get(key); err != nil || len(value) == 0 {
		return ErrRecordNotFound
	}
	if err := s.db.Delete(key); err != nil {
		return fmt.Errorf("storage: delete record: %w", err)
	}
	return nil
}
