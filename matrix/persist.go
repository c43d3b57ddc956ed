package matrix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

const filePermissions = 0o644

// Compression selects how a snapshot is encoded on disk.
type Compression string

const (
	// CompressionNone writes plain JSON.
	CompressionNone Compression = "none"
	// CompressionSnappy writes snappy block-encoded JSON.
	CompressionSnappy Compression = "snappy"
)

func (c Compression) valid() bool {
	switch c {
	case "", CompressionNone, CompressionSnappy:
		return true
	}
	return false
}

// Encode serializes a snapshot with the given compression.
func Encode(s *Snapshot, c Compression) ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("unknown compression %q", c)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if c == CompressionSnappy {
		data = snappy.Encode(nil, data)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode. Plain JSON is recognised by its
// leading '{'; anything else is treated as snappy-compressed.
func Decode(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var s Snapshot
		jsonErr := json.Unmarshal(trimmed, &s)
		if jsonErr == nil {
			return &s, nil
		}
		// a snappy block whose length prefix happens to encode as '{'
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", jsonErr)
		}
		return unmarshalSnapshot(decoded)
	}

	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return unmarshalSnapshot(decoded)
}

func unmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// WriteFile atomically publishes a snapshot at path.
//
// The encoded snapshot is written and fsynced to a uniquely named temporary
// file next to path, then renamed onto path. Readers of path only ever see the
// previous complete file or the new complete file. On failure the temporary
// file is removed and path is left untouched.
func WriteFile(path string, s *Snapshot, c Compression) error {
	data, err := Encode(s, c)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// tempPath returns a per-call unique sibling of path.
func tempPath(path string) string {
	return fmt.Sprintf("%s.%s.tmp", path, uuid.New().String())
}

func writeFileAtomic(path string, data []byte) error {
	tmpPath := tempPath(path)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	syncDir(filepath.Dir(path))
	return nil
}

// syncDir flushes the directory entry of a completed rename. Failures are
// ignored: the rename already happened and some platforms cannot sync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
