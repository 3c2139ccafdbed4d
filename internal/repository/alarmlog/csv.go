package alarmlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	domain "bacnet-alarm-relay/internal/domain/alarm"
)

// Record is one row of the alarm audit log.
type Record struct {
	// Timestamp is the local wall-clock capture time of the event.
	Timestamp time.Time
	// LastUpdate is the timestamp reported by the remote source.
	// Zero for degraded records where the source supplied none.
	LastUpdate time.Time
	// Message is the alarm description. May be empty for degraded records.
	Message string
}

// RecordFromEvent builds the audit row for a received event.
func RecordFromEvent(event domain.Event) Record {
	return Record{
		Timestamp:  event.ReceivedAt,
		LastUpdate: event.LastUpdate,
		Message:    event.Message,
	}
}

// Repository defines the append-only persistence for alarm records.
// Every received event, valid or malformed, produces exactly one record.
type Repository interface {
	Append(ctx context.Context, record Record) error
	ReadAll(ctx context.Context) ([]Record, error)
}

// header is the fixed first row of the CSV log.
var header = []string{"Timestamp", "LastUpdate", "Message"}

// ErrClosed is returned when appending after Close.
var ErrClosed = errors.New("alarm log is closed")

// FileRepository persists alarm records to an append-only CSV file.
// Appends are serialized by a mutex so concurrent events can never
// interleave partial rows.
type FileRepository struct {
	// path is the filesystem location of the CSV log.
	path string
	// mu protects file and writer.
	mu sync.Mutex
	// file is the open log handle (O_APPEND).
	file *os.File
	// writer encodes rows onto file.
	writer *csv.Writer
}

// NewFileRepository opens (or creates) the CSV log at the provided path and
// writes the header row when the file is new.
func NewFileRepository(path string) (*FileRepository, error) {
	path = filepath.Clean(path)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open alarm log: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("stat alarm log: %w", err)
	}

	r := &FileRepository{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
	}

	if info.Size() == 0 {
		if err := r.writeRow(header); err != nil {
			file.Close()

			return nil, err
		}
	}

	return r, nil
}

// Append writes one record to the log. The row is flushed and synced before
// returning, so a record reported as written survives a crash during the
// dispatch that follows. Failures are surfaced to the caller, never retried.
func (r *FileRepository) Append(_ context.Context, record Record) error {
	lastUpdate := ""
	if !record.LastUpdate.IsZero() {
		lastUpdate = record.LastUpdate.Format(time.RFC3339Nano)
	}

	row := []string{
		record.Timestamp.Format(time.RFC3339Nano),
		lastUpdate,
		record.Message,
	}

	return r.writeRow(row)
}

// writeRow encodes and durably flushes one CSV row under the lock.
func (r *FileRepository) writeRow(row []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return ErrClosed
	}

	if err := r.writer.Write(row); err != nil {
		return fmt.Errorf("write alarm record: %w", err)
	}

	r.writer.Flush()

	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("flush alarm record: %w", err)
	}

	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("sync alarm log: %w", err)
	}

	return nil
}

// ReadAll parses the log back into records, in arrival order.
func (r *FileRepository) ReadAll(_ context.Context) ([]Record, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open alarm log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(header)

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("read alarm log header: %w", err)
	}

	var records []Record

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read alarm record: %w", err)
		}

		record, err := parseRow(row)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}
}

// Close flushes and closes the underlying file.
func (r *FileRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	r.writer.Flush()

	err := r.file.Close()
	r.file = nil

	if err != nil {
		return fmt.Errorf("close alarm log: %w", err)
	}

	return nil
}

// parseRow converts one CSV row back into a Record.
func parseRow(row []string) (Record, error) {
	timestamp, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return Record{}, fmt.Errorf("parse record timestamp %q: %w", row[0], err)
	}

	var lastUpdate time.Time
	if row[1] != "" {
		lastUpdate, err = time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return Record{}, fmt.Errorf("parse record last update %q: %w", row[1], err)
		}
	}

	return Record{
		Timestamp:  timestamp,
		LastUpdate: lastUpdate,
		Message:    row[2],
	}, nil
}
