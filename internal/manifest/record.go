package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// WriteRecord writes rec into gameDir as the install record.
func WriteRecord(gameDir string, rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling install record: %w", err)
	}
	path := filepath.Join(gameDir, RecordFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing install record %s: %w", path, err)
	}
	return nil
}

// ReadRecord reads the install record from gameDir. Games installed by hand
// have none; the error then matches fs.ErrNotExist.
func ReadRecord(gameDir string) (*Record, error) {
	data, err := readFile(filepath.Join(gameDir, RecordFileName))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing install record in %s: %w", gameDir, err)
	}
	return &rec, nil
}
