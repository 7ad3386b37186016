package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"GameHarvester/internal/ports"
)

// File is the standalone ledger store: a sidecar file with one game ID per
// line, appended and fsynced per batch so a crash never loses acknowledged
// IDs.
type File struct {
	mu   sync.Mutex
	path string
}

var _ ports.LedgerStore = (*File)(nil)

// NewFile points the store at the sidecar path; the file is created on first
// append.
func NewFile(path string) *File {
	return &File{path: path}
}

// SeedKnownIDs reads every ID recorded so far. A missing file is an empty
// ledger, not an error.
func (f *File) SeedKnownIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ids file: %w", err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}

	return ids, nil
}

// AppendKnown writes the IDs and fsyncs before acknowledging.
func (f *File) AppendKnown(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ids file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	for _, id := range ids {
		if id == "" {
			continue
		}
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("append ids: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync ids file: %w", err)
	}
	return nil
}
