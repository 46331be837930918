// internal/backup/snapshot.go
//
// Snapshot file format and directory scan.
//
// Context
// -------
// A snapshot is one JSON document holding every mutable collection the site
// owns.  Files live flat in a single directory and are named
// `backup_<epochMillis>.json`, so lexical order of equal-length names and
// numeric order of the embedded millis agree.  Only the Writer creates
// files and only the Pruner deletes them; everything else reads.
//
// Format
// ------
//
//	{
//	  "announcements":  [ {id, title, content, date, featured}, … ],
//	  "streamSettings": {id, featuredChannel, autoDetect, offlineBehavior} | null,
//	  "streamChannels": [ … ],
//	  "themeSettings":  [ … ],
//	  "activeThemeId":  7 | null,
//	  "timestamp":      "2025-03-01T12:00:00.123Z"
//	}
//
// Notes
// -----
//   - A collection that decodes as nil (key missing or `null`) is skipped by
//     the restorer; an empty array clears it.  The Writer always emits
//     arrays.
//   - In-flight `.tmp` files are ignored by the scan.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/streamsite/internal/content"
)

const (
	filePrefix = "backup_"
	fileExt    = ".json"
	tmpExt     = ".tmp"

	// DefaultRetention is the number of snapshots kept on disk.
	DefaultRetention = 10
)

var (
	ErrNoSnapshots      = errors.New("backup: no snapshots available")
	ErrInvalidName      = errors.New("backup: invalid snapshot name")
	ErrSnapshotNotFound = errors.New("backup: snapshot not found")
)

// Snapshot is the full serialised state of the store at one instant.
type Snapshot struct {
	Announcements  []content.Announcement  `json:"announcements"`
	StreamSettings *content.StreamSetting  `json:"streamSettings"`
	StreamChannels []content.StreamChannel `json:"streamChannels"`
	ThemeSettings  []content.ThemeSetting  `json:"themeSettings"`
	ActiveThemeID  *int64                  `json:"activeThemeId"`
	CreatedAt      time.Time               `json:"timestamp"`
}

// Info describes one snapshot file on disk.
type Info struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
	Path      string    `json:"-"`

	millis int64
}

// FileName returns the file name for a snapshot created at ms.
func FileName(ms int64) string {
	return filePrefix + strconv.FormatInt(ms, 10) + fileExt
}

// ParseName extracts the epoch millis from a snapshot file name.  Only
// `backup_<digits>.json` is accepted.
func ParseName(name string) (int64, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// Load reads and decodes one snapshot file.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", filepath.Base(path), err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("backup: decode %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
}

// List returns the snapshots in dir, oldest first.  A missing directory
// yields an empty list.
func List(dir string) ([]Info, error) {
	infos, _, err := scan(dir)
	return infos, err
}

// Latest returns the newest snapshot in dir or ErrNoSnapshots.
func Latest(dir string) (Info, error) {
	infos, err := List(dir)
	if err != nil {
		return Info{}, err
	}
	if len(infos) == 0 {
		return Info{}, ErrNoSnapshots
	}
	return infos[len(infos)-1], nil
}

// scan lists dir and splits candidate files into parsed snapshots and
// names that look like snapshots but do not parse.
func scan(dir string) (infos []Info, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("backup: list %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, tmpExt) {
			continue
		}
		ms, ok := ParseName(name)
		if !ok {
			if strings.HasPrefix(name, filePrefix) {
				skipped = append(skipped, name)
			}
			continue
		}
		info := Info{
			Name:      name,
			CreatedAt: time.UnixMilli(ms).UTC(),
			Path:      filepath.Join(dir, name),
			millis:    ms,
		}
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].millis != infos[j].millis {
			return infos[i].millis < infos[j].millis
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, skipped, nil
}
