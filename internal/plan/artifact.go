package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact is the persisted form of a week's plan. It can be re-loaded to
// resume a week without re-planning.
type Artifact struct {
	WeekNumber int           `json:"week_number"`
	PlannedAt  time.Time     `json:"planned_at"`
	Items      []PlannedItem `json:"items"`
}

// ArtifactPath returns the plan file location inside a week directory.
func ArtifactPath(weekDir string) string {
	return filepath.Join(weekDir, "plan.json")
}

// SaveArtifact writes the plan atomically (temp file plus rename) so a
// half-written plan is never observed.
func SaveArtifact(weekDir string, week int, items []PlannedItem) (string, error) {
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return "", fmt.Errorf("create week directory: %w", err)
	}
	artifact := Artifact{
		WeekNumber: week,
		PlannedAt:  time.Now().UTC(),
		Items:      items,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}

	path := ArtifactPath(weekDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace plan: %w", err)
	}
	return path, nil
}

// LoadArtifact reads a previously saved plan.
func LoadArtifact(weekDir string) (*Artifact, error) {
	data, err := os.ReadFile(ArtifactPath(weekDir))
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &artifact, nil
}
