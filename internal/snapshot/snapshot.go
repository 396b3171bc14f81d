// Package snapshot reads task/habit snapshots from JSON or YAML files for
// offline analysis.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/productive-me/momentum/internal/domain"
)

// Format is a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from a file extension. Unknown extensions are
// sniffed from content by Decode.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// Load reads and decodes the snapshot at path.
func Load(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Decode(data, FormatFor(path))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

// Read decodes a snapshot from r, sniffing the format.
func Read(r io.Reader) (domain.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data, "")
}

// Decode parses data. An empty format means JSON when the first non-blank
// byte opens an object, YAML otherwise. Malformed timestamps inside records
// are kept as invalid values; only structurally broken documents fail.
func Decode(data []byte, format Format) (domain.Snapshot, error) {
	if format == "" {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = FormatJSON
		}
	}

	var snap domain.Snapshot
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &snap); err != nil {
			return domain.Snapshot{}, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return domain.Snapshot{}, err
		}
	default:
		return domain.Snapshot{}, fmt.Errorf("unsupported snapshot format %q", format)
	}

	if snap.Tasks == nil {
		snap.Tasks = []domain.Task{}
	}
	if snap.Habits == nil {
		snap.Habits = []domain.Habit{}
	}
	return snap, nil
}

// Encode writes snap in the given format.
func Encode(w io.Writer, snap domain.Snapshot, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
}
