package orderbackup

import (
	"context"
	"sync"

	"github.com/udonthavemotion/BRISClothing/lib/mytime"
)

// InMemoryOrderStore mirrors the file store's semantics without touching
// disk; used by the services' tests.
type InMemoryOrderStore struct {
	sync.Mutex
	nower   mytime.Nower
	records []OrderRecord
}

func NewInMemoryStore(nower mytime.Nower) *InMemoryOrderStore {
	return &InMemoryOrderStore{
		nower:   nower,
		records: []OrderRecord{},
	}
}

func (s *InMemoryOrderStore) Append(c context.Context, record OrderRecord) error {
	s.Lock()
	defer s.Unlock()

	now := s.nower.Now()
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	record.BackupTimestamp = now
	record.BackupVersion = backupVersion

	s.records = append(s.records, record)

	return nil
}

func (s *InMemoryOrderStore) FindBySessionID(c context.Context, sessionID string) (OrderRecord, bool, error) {
	s.Lock()
	defer s.Unlock()

	for _, record := range s.records {
		if record.SessionID == sessionID {
			return record, true, nil
		}
	}

	return OrderRecord{}, false, nil
}

func (s *InMemoryOrderStore) Merge(c context.Context, sessionID string, patch Patch) error {
	s.Lock()

	for i, record := range s.records {
		if record.SessionID != sessionID {
			continue
		}

		merged, err := mergeRecord(record, patch)
		if err != nil {
			s.Unlock()

			return err
		}

		s.records[i] = merged
		s.Unlock()

		return nil
	}

	s.Unlock()

	record, err := recordFromPatch(sessionID, patch)
	if err != nil {
		return err
	}

	return s.Append(c, record)
}

func (s *InMemoryOrderStore) ListAll(c context.Context) ([]OrderRecord, error) {
	s.Lock()
	defer s.Unlock()

	result := make([]OrderRecord, len(s.records))
	copy(result, s.records)

	return result, nil
}

func (s *InMemoryOrderStore) ListByDate(c context.Context, date string) ([]OrderRecord, error) {
	s.Lock()
	defer s.Unlock()

	result := []OrderRecord{}
	for _, record := range s.records {
		if record.Timestamp.Format(dateFormat) == date {
			result = append(result, record)
		}
	}

	return result, nil
}

func (s *InMemoryOrderStore) Search(c context.Context, term string) ([]OrderRecord, error) {
	s.Lock()
	defer s.Unlock()

	return searchRecords(s.records, term), nil
}

func (s *InMemoryOrderStore) Stats(c context.Context) (OrderStats, error) {
	s.Lock()
	defer s.Unlock()

	return computeStats(s.records, s.nower.Now()), nil
}
