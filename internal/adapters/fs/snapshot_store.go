package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/tracesink/internal/domain"
)

const (
	elementSeparator = ",\n"

	// maxNameAttempts bounds the -N suffixes tried when artifact names collide.
	maxNameAttempts = 1000
)

// SnapshotFileStore implements ports.SnapshotStore with one JSON array file
// per drained window.
type SnapshotFileStore struct {
	dir    string
	prefix string
}

// NewSnapshotFileStore creates a store writing <dir>/<prefix><ts>.json files.
// An empty dir means the working directory.
func NewSnapshotFileStore(dir, prefix string) *SnapshotFileStore {
	return &SnapshotFileStore{dir: dir, prefix: prefix}
}

// Store writes events as a JSON array named after the first event's timestamp
// in whole seconds. The artifact is written to a temp file and linked into
// place, so it never appears partially written. An existing artifact is never
// replaced: when the name is taken, -1, -2, ... is appended before ".json".
func (s *SnapshotFileStore) Store(events []domain.TraceEvent) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	path := s.Path(events[0].Timestamp)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriterSize(tmp, writeBufferSize)
	if err := writeArray(buf, events); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}

	return publish(tmp.Name(), path)
}

// publish hard-links src to the first free name derived from path. Link fails
// on an existing target, so concurrent drains cannot claim the same name.
func publish(src, path string) (string, error) {
	base := strings.TrimSuffix(path, ".json")
	for n := 0; n < maxNameAttempts; n++ {
		name := path
		if n > 0 {
			name = base + "-" + strconv.Itoa(n) + ".json"
		}
		err := os.Link(src, name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("publish snapshot: %w", err)
		}
	}
	return "", fmt.Errorf("publish snapshot: no free name for %s after %d attempts", path, maxNameAttempts)
}

// Path returns the artifact path for a window starting at ts seconds.
func (s *SnapshotFileStore) Path(ts float64) string {
	name := s.prefix + strconv.FormatInt(int64(ts), 10) + ".json"
	return filepath.Join(s.dir, name)
}

func writeArray(w io.StringWriter, events []domain.TraceEvent) error {
	if _, err := w.WriteString("["); err != nil {
		return err
	}
	for i, ev := range events {
		if i > 0 {
			if _, err := w.WriteString(elementSeparator); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(ev.Payload); err != nil {
			return err
		}
	}
	_, err := w.WriteString("]")
	return err
}
