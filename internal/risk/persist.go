package risk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"freightpulse/pkg/contracts/domain"
)

// WriteSnapshotIfChanged persists the snapshot as indented JSON, but
// only when the content differs from what is already on disk. The
// timestamp field is excluded from the comparison, so an unchanged
// risk state produces no new write and downstream consumers see a
// stable file.
//
// Returns whether the file was written.
func WriteSnapshotIfChanged(path string, snapshot domain.RiskSnapshot) (bool, error) {
	newData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if oldData, err := os.ReadFile(path); err == nil {
		if snapshotsEqual(oldData, newData) {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, newData, 0644); err != nil {
		return false, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return true, nil
}

// ReadSnapshot loads a previously written snapshot. A missing file
// returns (nil, nil).
func ReadSnapshot(path string) (*domain.RiskSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot domain.RiskSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// snapshotsEqual compares two snapshot serializations ignoring the
// generated_at_utc timestamp.
func snapshotsEqual(a, b []byte) bool {
	var oldSnap, newSnap domain.RiskSnapshot
	if err := json.Unmarshal(a, &oldSnap); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &newSnap); err != nil {
		return false
	}
	oldSnap.GeneratedAtUTC = newSnap.GeneratedAtUTC

	oldData, err := json.Marshal(oldSnap)
	if err != nil {
		return false
	}
	newData, err := json.Marshal(newSnap)
	if err != nil {
		return false
	}
	return bytes.Equal(oldData, newData)
}
