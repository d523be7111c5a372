package manifest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path returns the manifest JSON location inside a week directory.
func Path(weekDir string) string {
	return filepath.Join(weekDir, "manifest.json")
}

// CSVPath returns the companion CSV location inside a week directory.
func CSVPath(weekDir string) string {
	return filepath.Join(weekDir, "manifest.csv")
}

// Write persists the manifest atomically (temp file plus rename), replacing
// any prior manifest for the week. A companion CSV is written beside it for
// spreadsheet review.
func Write(weekDir string, week *Week) error {
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return fmt.Errorf("create week directory: %w", err)
	}

	data, err := json.MarshalIndent(week, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := replaceFile(Path(weekDir), append(data, '\n')); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := writeCSV(CSVPath(weekDir), week); err != nil {
		return fmt.Errorf("write manifest csv: %w", err)
	}
	return nil
}

// Load reads a previously written manifest.
func Load(weekDir string) (*Week, error) {
	data, err := os.ReadFile(Path(weekDir))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var week Week
	if err := json.Unmarshal(data, &week); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &week, nil
}

func writeCSV(path string, week *Week) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	header := []string{"item_slug", "entity_name", "content_kind", "status", "script_path", "video_path", "thumbnail_path", "tags", "error_detail"}
	rows := [][]string{header}
	for _, entry := range week.Entries {
		rows = append(rows, []string{
			entry.ItemSlug,
			entry.EntityName,
			entry.ContentKind,
			string(entry.Status),
			entry.ScriptPath,
			entry.VideoPath,
			entry.ThumbnailPath,
			strings.Join(entry.Tags, ","),
			entry.ErrorDetail,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func replaceFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
