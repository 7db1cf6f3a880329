package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"pulseboard/internal/widget"
)

// NewsEventRecord is the Parquet schema for archived calendar events.
type NewsEventRecord struct {
	ID       string `parquet:"id"`
	Title    string `parquet:"title"`
	Country  string `parquet:"country"`
	Impact   string `parquet:"impact"`
	Status   string `parquet:"status"`
	Time     int64  `parquet:"time,timestamp(millisecond)"`
	Forecast string `parquet:"forecast"`
	Previous string `parquet:"previous"`
}

// NewsArchive writes one Parquet file of calendar events per day under
// dataDir/news/<date>.parquet.
type NewsArchive struct {
	DataDir string
}

// NewNewsArchive creates a NewsArchive rooted at the given data directory.
func NewNewsArchive(dataDir string) *NewsArchive {
	return &NewsArchive{DataDir: dataDir}
}

func (a *NewsArchive) pathFor(date string) string {
	return filepath.Join(a.DataDir, "news", date+".parquet")
}

// ArchiveEvents merges the given events into the day file for date
// (YYYY-MM-DD), deduplicating by event ID. Later writes of the same ID win,
// so a status flip from UPCOMING to RELEASED is kept.
func (a *NewsArchive) ArchiveEvents(date string, events []widget.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	path := a.pathFor(date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	merged := make(map[string]NewsEventRecord)
	if existing, err := parquet.ReadFile[NewsEventRecord](path); err == nil {
		for _, r := range existing {
			merged[r.ID] = r
		}
	}
	for _, ev := range events {
		merged[ev.ID] = NewsEventRecord{
			ID:       ev.ID,
			Title:    ev.Title,
			Country:  ev.Country,
			Impact:   ev.Impact,
			Status:   ev.Status,
			Time:     ev.Time.UnixMilli(),
			Forecast: ev.Forecast,
			Previous: ev.Previous,
		}
	}

	records := make([]NewsEventRecord, 0, len(merged))
	for _, r := range merged {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Time < records[j].Time })

	// Write to a temp file and rename, so a crash never corrupts the archive.
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadDay returns the archived events for a date, in time order.
func (a *NewsArchive) ReadDay(date string) ([]widget.CalendarEvent, error) {
	records, err := parquet.ReadFile[NewsEventRecord](a.pathFor(date))
	if err != nil {
		return nil, err
	}
	events := make([]widget.CalendarEvent, 0, len(records))
	for _, r := range records {
		events = append(events, widget.CalendarEvent{
			ID:       r.ID,
			Title:    r.Title,
			Country:  r.Country,
			Impact:   r.Impact,
			Status:   r.Status,
			Time:     time.UnixMilli(r.Time),
			Forecast: r.Forecast,
			Previous: r.Previous,
		})
	}
	return events, nil
}

// Dates lists the archive dates present on disk, ascending.
func (a *NewsArchive) Dates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.DataDir, "news"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".parquet" {
			dates = append(dates, name[:len(name)-len(".parquet")])
		}
	}
	sort.Strings(dates)
	return dates, nil
}
