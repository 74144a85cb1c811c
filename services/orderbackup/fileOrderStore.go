package orderbackup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
)

type fileOrderStore struct {
	ordersFile string
	dailyDir   string
	nower      mytime.Nower
	logger     mylog.Logger

	// Mutating access is serialized per target file. This protects the
	// read-modify-write cycle within a single process only; a multi-instance
	// deployment would need a transactional store instead of flat files.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the backup directory layout (master orders.json plus a
// daily/ partition dir) if it does not exist yet.
func NewFileStore(backupDir string, nower mytime.Nower) (Store, error) {
	s := &fileOrderStore{
		ordersFile: filepath.Join(backupDir, "orders.json"),
		dailyDir:   filepath.Join(backupDir, "daily"),
		nower:      nower,
		logger:     mylog.New("orderbackup"),
		locks:      map[string]*sync.Mutex{},
	}

	err := os.MkdirAll(s.dailyDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("error creating backup dirs: %s", err)
	}

	if _, err := os.Stat(s.ordersFile); os.IsNotExist(err) {
		err = os.WriteFile(s.ordersFile, []byte("[]"), 0o644)
		if err != nil {
			return nil, fmt.Errorf("error creating orders file: %s", err)
		}
	}

	return s, nil
}

func (s *fileOrderStore) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[path]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}

	return lock
}

func (s *fileOrderStore) Append(c context.Context, record OrderRecord) error {
	now := s.nower.Now()

	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	record.BackupTimestamp = now
	record.BackupVersion = backupVersion

	err := s.appendToFile(s.ordersFile, record)
	if err != nil {
		return fmt.Errorf("error appending to master log: %s", err)
	}

	err = s.appendToFile(s.dailyFile(record.Timestamp), record)
	if err != nil {
		return fmt.Errorf("error appending to daily log: %s", err)
	}

	s.logger.Log(c, record.SessionID, mylog.SeverityInfo, "Order %s backed up", record.SessionID)

	return nil
}

func (s *fileOrderStore) FindBySessionID(c context.Context, sessionID string) (OrderRecord, bool, error) {
	records := s.readRecordsSafe(c, s.ordersFile)

	for _, record := range records {
		if record.SessionID == sessionID {
			return record, true, nil
		}
	}

	return OrderRecord{}, false, nil
}

func (s *fileOrderStore) Merge(c context.Context, sessionID string, patch Patch) error {
	merged, found, err := s.mergeIntoMaster(sessionID, patch)
	if err != nil {
		return err
	}

	if !found {
		record, err := recordFromPatch(sessionID, patch)
		if err != nil {
			return err
		}

		return s.Append(c, record)
	}

	// The daily partition is a derived view; a missing or stale partition is
	// left alone rather than failing the merge.
	err = s.mergeIntoDaily(merged)
	if err != nil {
		s.logger.Log(c, sessionID, mylog.SeverityWarn, "Daily partition not updated for %s: %s", sessionID, err)
	}

	s.logger.Log(c, sessionID, mylog.SeverityInfo, "Order %s merged", sessionID)

	return nil
}

func (s *fileOrderStore) mergeIntoMaster(sessionID string, patch Patch) (OrderRecord, bool, error) {
	lock := s.lockFor(s.ordersFile)
	lock.Lock()
	defer lock.Unlock()

	records, err := readRecords(s.ordersFile)
	if err != nil {
		return OrderRecord{}, false, fmt.Errorf("error reading master log: %s", err)
	}

	for i, record := range records {
		if record.SessionID != sessionID {
			continue
		}

		merged, err := mergeRecord(record, patch)
		if err != nil {
			return OrderRecord{}, false, err
		}

		records[i] = merged

		err = writeRecords(s.ordersFile, records)
		if err != nil {
			return OrderRecord{}, false, fmt.Errorf("error writing master log: %s", err)
		}

		return merged, true, nil
	}

	return OrderRecord{}, false, nil
}

func (s *fileOrderStore) mergeIntoDaily(merged OrderRecord) error {
	path := s.dailyFile(merged.Timestamp)

	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	for i, record := range records {
		if record.SessionID == merged.SessionID {
			records[i] = merged

			return writeRecords(path, records)
		}
	}

	return fmt.Errorf("session %s not present in partition %s", merged.SessionID, filepath.Base(path))
}

func (s *fileOrderStore) ListAll(c context.Context) ([]OrderRecord, error) {
	return s.readRecordsSafe(c, s.ordersFile), nil
}

func (s *fileOrderStore) ListByDate(c context.Context, date string) ([]OrderRecord, error) {
	if _, err := time.Parse(dateFormat, date); err != nil {
		return []OrderRecord{}, nil
	}

	return s.readRecordsSafe(c, filepath.Join(s.dailyDir, fmt.Sprintf("orders-%s.json", date))), nil
}

func (s *fileOrderStore) Search(c context.Context, term string) ([]OrderRecord, error) {
	records := s.readRecordsSafe(c, s.ordersFile)

	return searchRecords(records, term), nil
}

func (s *fileOrderStore) Stats(c context.Context) (OrderStats, error) {
	records := s.readRecordsSafe(c, s.ordersFile)

	return computeStats(records, s.nower.Now()), nil
}

func (s *fileOrderStore) appendToFile(path string, record OrderRecord) error {
	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	records = append(records, record)

	return writeRecords(path, records)
}

func (s *fileOrderStore) dailyFile(timestamp time.Time) string {
	return filepath.Join(s.dailyDir, fmt.Sprintf("orders-%s.json", timestamp.Format(dateFormat)))
}

// readRecordsSafe backs the read operations: a missing or corrupt file
// degrades to an empty result instead of propagating.
func (s *fileOrderStore) readRecordsSafe(c context.Context, path string) []OrderRecord {
	records, err := readRecords(path)
	if err != nil {
		s.logger.Log(c, "", mylog.SeverityWarn, "Degrading to empty result for %s: %s", filepath.Base(path), err)

		return []OrderRecord{}
	}

	return records
}

func readRecords(path string) ([]OrderRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []OrderRecord{}, nil
		}

		return nil, err
	}

	records := []OrderRecord{}
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("corrupt backup file: %s", err)
	}

	return records, nil
}

func writeRecords(path string, records []OrderRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// mergeRecord overlays the patch on the existing record at the JSON level, so
// fields absent from the patch keep their current value.
func mergeRecord(existing OrderRecord, patch Patch) (OrderRecord, error) {
	data, err := json.Marshal(existing)
	if err != nil {
		return OrderRecord{}, err
	}

	fields := map[string]any{}
	err = json.Unmarshal(data, &fields)
	if err != nil {
		return OrderRecord{}, err
	}

	for key, value := range patch {
		fields[key] = value
	}

	data, err = json.Marshal(fields)
	if err != nil {
		return OrderRecord{}, err
	}

	merged := OrderRecord{}
	err = json.Unmarshal(data, &merged)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("error applying patch: %s", err)
	}

	return merged, nil
}

func recordFromPatch(sessionID string, patch Patch) (OrderRecord, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return OrderRecord{}, err
	}

	record := OrderRecord{}
	err = json.Unmarshal(data, &record)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("error building record from patch: %s", err)
	}

	record.SessionID = sessionID

	return record, nil
}

func searchRecords(records []OrderRecord, term string) []OrderRecord {
	needle := strings.ToLower(term)

	matches := []OrderRecord{}
	for _, record := range records {
		itemsJSON, _ := json.Marshal(record.Items)

		if strings.Contains(strings.ToLower(record.CustomerEmail), needle) ||
			strings.Contains(strings.ToLower(record.SessionID), needle) ||
			strings.Contains(strings.ToLower(record.CustomerName), needle) ||
			strings.Contains(strings.ToLower(string(itemsJSON)), needle) {
			matches = append(matches, record)
		}
	}

	return matches
}
