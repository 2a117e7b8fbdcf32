package api

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// FeedbackLog appends user feedback to a CSV file. Writes are serialized
// and flushed per record so a crash loses at most the in-flight row.
type FeedbackLog struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewFeedbackLog opens (or creates) the CSV file, writing a header on
// first use.
func NewFeedbackLog(path string) (*FeedbackLog, error) {
	info, err := os.Stat(path)
	isNew := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open feedback log: %w", err)
	}

	fl := &FeedbackLog{file: file, w: csv.NewWriter(file)}
	if isNew {
		if err := fl.w.Write([]string{"timestamp", "session_id", "rating", "comment"}); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write feedback header: %w", err)
		}
		fl.w.Flush()
	}
	return fl, nil
}

// Record appends one feedback row.
func (fl *FeedbackLog) Record(sessionID string, rating int, comment string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		sessionID,
		strconv.Itoa(rating),
		comment,
	}
	if err := fl.w.Write(row); err != nil {
		return fmt.Errorf("write feedback row: %w", err)
	}
	fl.w.Flush()
	return fl.w.Error()
}

// Close flushes and closes the underlying file.
func (fl *FeedbackLog) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.w.Flush()
	return fl.file.Close()
}
