package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/manifest"
	"reelsmith/internal/services"
)

// CSVName is the fixed scheduler export filename within a week directory.
const CSVName = "scheduler_manifest.csv"

// csvColumns is the fixed scheduler CSV header. Downstream tooling matches
// columns by name, so the order never changes.
var csvColumns = []string{"scheduled_datetime", "title", "caption", "video_path", "thumbnail_path", "tags"}

const (
	slotStartHour = 9
	slotEndHour   = 20
)

// CadencePolicy shapes how manifest entries map onto posting slots.
type CadencePolicy struct {
	DailyQuota int
	PostTimes  []string // "HH:MM"; empty means evenly spaced slots
}

// Result summarizes one export.
type Result struct {
	CSVPath  string
	Exported int
	Skipped  int
}

// DaySlots returns the posting times for count entries on one day. A single
// entry posts at noon; multiple entries spread evenly from 09:00 to 20:00
// inclusive.
func DaySlots(count int) []time.Duration {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []time.Duration{12 * time.Hour}
	}
	span := float64(slotEndHour - slotStartHour)
	step := span / float64(count-1)
	slots := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		h := float64(slotStartHour) + step*float64(i)
		hour := int(h)
		minute := int((h - float64(hour)) * 60)
		slots = append(slots, time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute)
	}
	return slots
}

// Export writes the scheduler CSV for a completed week. Only ok entries are
// exported; blocked and failed entries count as skipped. Entries fill days
// sequentially, DailyQuota per day, starting at startDate in the given
// timezone.
func Export(weekDir string, week *manifest.Week, startDate, timezone string, policy CadencePolicy) (Result, error) {
	var result Result
	if week == nil || len(week.Entries) == 0 {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export", "empty manifest", nil)
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export",
			fmt.Sprintf("unknown timezone %q", timezone), err)
	}
	day, err := time.ParseInLocation("2006-01-02", startDate, location)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export",
			fmt.Sprintf("invalid start date %q (want YYYY-MM-DD)", startDate), err)
	}

	quota := policy.DailyQuota
	if quota <= 0 {
		quota = 1
	}
	slots, err := daySlotTimes(quota, policy.PostTimes)
	if err != nil {
		return result, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvColumns); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export", "write header", err)
	}

	idx := 0
	for _, entry := range week.Entries {
		if entry.Status != manifest.StatusOK {
			result.Skipped++
			continue
		}
		slot := slots[idx%quota]
		dayOffset := idx / quota
		scheduled := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, location).
			AddDate(0, 0, dayOffset).
			Add(slot)

		caption := entry.Caption
		if caption == "" {
			caption = fmt.Sprintf("%s — %s (Week %d)", entry.EntityName, entry.ContentKind, week.WeekNumber)
		}
		row := []string{
			scheduled.Format(time.RFC3339),
			fmt.Sprintf("%s — %s", entry.ContentKind, entry.EntityName),
			caption,
			entry.VideoPath,
			entry.ThumbnailPath,
			strings.Join(entry.Tags, ","),
		}
		if err := writer.Write(row); err != nil {
			return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export", "write row", err)
		}
		idx++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export", "flush csv", err)
	}

	path := filepath.Join(weekDir, CSVName)
	if err := replaceFile(path, buf.Bytes()); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "export", "scheduler export", "write csv", err)
	}
	result.CSVPath = path
	result.Exported = idx
	return result, nil
}

// daySlotTimes resolves the per-day slot offsets, preferring configured post
// times over even spacing.
func daySlotTimes(quota int, postTimes []string) ([]time.Duration, error) {
	if len(postTimes) == 0 {
		return DaySlots(quota), nil
	}
	if len(postTimes) < quota {
		return nil, services.Wrap(services.ErrConfiguration, "export", "scheduler export",
			fmt.Sprintf("%d post times configured but daily quota is %d", len(postTimes), quota), nil)
	}
	slots := make([]time.Duration, 0, quota)
	for _, value := range postTimes[:quota] {
		parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
		if len(parts) != 2 {
			return nil, services.Wrap(services.ErrConfiguration, "export", "scheduler export",
				fmt.Sprintf("invalid post time %q (want HH:MM)", value), nil)
		}
		hour, errH := strconv.Atoi(parts[0])
		minute, errM := strconv.Atoi(parts[1])
		if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, services.Wrap(services.ErrConfiguration, "export", "scheduler export",
				fmt.Sprintf("invalid post time %q (want HH:MM)", value), nil)
		}
		slots = append(slots, time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute)
	}
	return slots, nil
}

func replaceFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
