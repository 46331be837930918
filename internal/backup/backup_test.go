package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/metrics"
	"github.com/yanizio/streamsite/internal/store"
	"github.com/yanizio/streamsite/internal/store/memory"
)

var errBoom = errors.New("boom")

// failingStore breaks one operation of an otherwise healthy store.
type failingStore struct {
	store.Store
	failOn string
}

func (f failingStore) ListAnnouncements(ctx context.Context) ([]content.Announcement, error) {
	if f.failOn == "list-announcements" {
		return nil, errBoom
	}
	return f.Store.ListAnnouncements(ctx)
}

func (f failingStore) CreateStreamChannel(ctx context.Context, d content.StreamChannelData) (content.StreamChannel, error) {
	if f.failOn == "create-channel" {
		return content.StreamChannel{}, errBoom
	}
	return f.Store.CreateStreamChannel(ctx, d)
}

// seedScenario fills st with two announcements, one stream setting, two
// channels, and one active theme.
func seedScenario(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	d1 := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 3, 11, 30, 0, 0, time.UTC)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := st.CreateAnnouncement(ctx, content.AnnouncementData{Title: "First", Content: "one", Date: d1})
	must(err)
	_, err = st.CreateAnnouncement(ctx, content.AnnouncementData{Title: "Second", Content: "two", Date: d2, Featured: true})
	must(err)
	_, err = st.PutStreamSettings(ctx, content.StreamSettingData{FeaturedChannel: "rennsz", AutoDetect: true, OfflineBehavior: "message"})
	must(err)
	_, err = st.CreateStreamChannel(ctx, content.StreamChannelData{
		Name: "rennsz", URL: "https://www.twitch.tv/rennsz", DisplayName: "RENNSZ", Type: "IRL", IsMain: true,
	})
	must(err)
	_, err = st.CreateStreamChannel(ctx, content.StreamChannelData{
		Name: "rennszino", URL: "https://www.twitch.tv/rennszino", DisplayName: "RENNSZINO", Type: "Gaming",
	})
	must(err)
	_, err = st.CreateTheme(ctx, content.ThemeData{
		Name: "Premium Dark", PrimaryColor: "#000", SecondaryColor: "#111", AccentColor: "#D4AF37",
		TextColor: "#fff", BackgroundType: "color", BackgroundValue: "#000",
		HeadingFont: "Playfair Display", BodyFont: "Inter", IsActive: true,
	})
	must(err)
}

// sameContent fails the test unless a and b hold equal records, ignoring
// identifiers.
func sameContent(t *testing.T, a, b store.Store) {
	t.Helper()
	ctx := context.Background()

	annA, _ := a.ListAnnouncements(ctx)
	annB, _ := b.ListAnnouncements(ctx)
	if len(annA) != len(annB) {
		t.Fatalf("announcements: %d vs %d", len(annA), len(annB))
	}
	for i := range annA {
		x, y := annA[i].AnnouncementData, annB[i].AnnouncementData
		if x.Title != y.Title || x.Content != y.Content || x.Featured != y.Featured || !x.Date.Equal(y.Date) {
			t.Fatalf("announcement %d differs: %+v vs %+v", i, x, y)
		}
	}

	stA, _ := a.GetStreamSettings(ctx)
	stB, _ := b.GetStreamSettings(ctx)
	if (stA == nil) != (stB == nil) || (stA != nil && stA.StreamSettingData != stB.StreamSettingData) {
		t.Fatalf("stream settings differ: %+v vs %+v", stA, stB)
	}

	chA, _ := a.ListStreamChannels(ctx)
	chB, _ := b.ListStreamChannels(ctx)
	if len(chA) != len(chB) {
		t.Fatalf("channels: %d vs %d", len(chA), len(chB))
	}
	for i := range chA {
		if chA[i].StreamChannelData != chB[i].StreamChannelData {
			t.Fatalf("channel %d differs: %+v vs %+v", i, chA[i], chB[i])
		}
	}

	thA, _ := a.ListThemes(ctx)
	thB, _ := b.ListThemes(ctx)
	if len(thA) != len(thB) {
		t.Fatalf("themes: %d vs %d", len(thA), len(thB))
	}
	for i := range thA {
		if thA[i].ThemeData != thB[i].ThemeData {
			t.Fatalf("theme %d differs: %+v vs %+v", i, thA[i], thB[i])
		}
	}
}

func countRestoreLogs(t *testing.T, st store.Store) int {
	t.Helper()
	logs, err := st.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	n := 0
	for _, l := range logs {
		if l.Action == RestoreAction && l.Category == content.CategorySystem {
			n++
		}
	}
	return n
}

/*──────────────────────────── writer + restore ────────────────────────────*/

func TestWriteThenRestore_SameStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := memory.New()
	seedScenario(t, st)

	before := memory.New()
	seedScenario(t, before)
	oldAnn, _ := st.ListAnnouncements(ctx)
	oldActive, _ := st.ActiveTheme(ctx)

	w := NewWriter(dir, st, zaptest.NewLogger(t))
	path, err := w.Write(ctx)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok := ParseName(filepath.Base(path)); !ok {
		t.Fatalf("unexpected file name %q", path)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Announcements) != 2 || snap.StreamSettings == nil ||
		len(snap.StreamChannels) != 2 || len(snap.ThemeSettings) != 1 {
		t.Fatalf("incomplete snapshot: %+v", snap)
	}
	if snap.ActiveThemeID == nil || *snap.ActiveThemeID != oldActive.ID {
		t.Fatalf("activeThemeId = %v, want %d", snap.ActiveThemeID, oldActive.ID)
	}

	r := NewRestorer(st, zaptest.NewLogger(t))
	if err := r.RestoreFile(ctx, path); err != nil {
		t.Fatalf("RestoreFile: %v", err)
	}

	sameContent(t, before, st)

	newAnn, _ := st.ListAnnouncements(ctx)
	for i := range newAnn {
		if newAnn[i].ID == oldAnn[i].ID {
			t.Fatalf("announcement %d kept id %d", i, oldAnn[i].ID)
		}
	}
	active, err := st.ActiveTheme(ctx)
	if err != nil || active.Name != "Premium Dark" || active.ID == oldActive.ID {
		t.Fatalf("active theme = %+v, %v", active, err)
	}
	if n := countRestoreLogs(t, st); n != 1 {
		t.Fatalf("restore log entries = %d, want 1", n)
	}
}

func TestRoundTripIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	if _, err := store.Seed(ctx, src); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	path, err := NewWriter(t.TempDir(), src, zaptest.NewLogger(t)).Write(ctx)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	dst := memory.New()
	if err := NewRestorer(dst, zaptest.NewLogger(t)).RestoreFile(ctx, path); err != nil {
		t.Fatalf("RestoreFile: %v", err)
	}
	sameContent(t, src, dst)
}

func TestWriterCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	st := memory.New()
	seedScenario(t, st)

	path, err := NewWriter(dir, st, zaptest.NewLogger(t)).Write(context.Background())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("written to %s, want dir %s", path, dir)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tmpExt) {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriterEmitsArraysForEmptyStore(t *testing.T) {
	path, err := NewWriter(t.TempDir(), memory.New(), zaptest.NewLogger(t)).Write(context.Background())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	for _, want := range []string{`"announcements": []`, `"streamSettings": null`, `"activeThemeId": null`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("snapshot missing %s:\n%s", want, raw)
		}
	}
}

func TestWriterReadFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	before := testutil.ToFloat64(metrics.SnapshotErrorsTotal)

	w := NewWriter(dir, failingStore{Store: memory.New(), failOn: "list-announcements"}, zaptest.NewLogger(t))
	if _, err := w.Write(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if infos, _ := List(dir); len(infos) != 0 {
		t.Fatalf("files after failed write: %+v", infos)
	}
	if got := testutil.ToFloat64(metrics.SnapshotErrorsTotal) - before; got != 1 {
		t.Fatalf("snapshot error counter delta = %v, want 1", got)
	}
}

func TestWriterNamesStrictlyIncrease(t *testing.T) {
	w := NewWriter(t.TempDir(), memory.New(), zaptest.NewLogger(t))
	frozen := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return frozen }

	var last int64
	for i := 0; i < 3; i++ {
		path, err := w.Write(context.Background())
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		ms, _ := ParseName(filepath.Base(path))
		if ms <= last {
			t.Fatalf("name %d not after %d", ms, last)
		}
		last = ms
	}
	if last != frozen.UnixMilli()+2 {
		t.Fatalf("last = %d, want %d", last, frozen.UnixMilli()+2)
	}
}

/*──────────────────────────── retention ───────────────────────────────────*/

func TestRetentionKeepsNewestTen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := memory.New()
	seedScenario(t, st)

	w := NewWriter(dir, st, zaptest.NewLogger(t))
	frozen := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return frozen }

	var paths []string
	for i := 0; i < 15; i++ {
		p, err := w.Write(ctx)
		if err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
		paths = append(paths, p)
	}

	p := NewPruner(dir, 0, zaptest.NewLogger(t))
	if p.Keep() != DefaultRetention {
		t.Fatalf("Keep = %d, want %d", p.Keep(), DefaultRetention)
	}
	if removed := p.Prune(ctx); removed != 5 {
		t.Fatalf("removed = %d, want 5", removed)
	}

	infos, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 10 {
		t.Fatalf("remaining = %d, want 10", len(infos))
	}
	for i, info := range infos {
		if info.Path != paths[5+i] {
			t.Fatalf("remaining[%d] = %s, want %s", i, info.Path, paths[5+i])
		}
	}
	if got := testutil.ToFloat64(metrics.SnapshotsOnDisk); got != 10 {
		t.Fatalf("on-disk gauge = %v, want 10", got)
	}
}

func TestPruneBelowLimitAndOddNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{FileName(1), FileName(2), "backup_abc.json", "notes.txt", FileName(3) + tmpExt} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if removed := NewPruner(dir, 2, zaptest.NewLogger(t)).Prune(context.Background()); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if removed := NewPruner(dir, 1, zaptest.NewLogger(t)).Prune(context.Background()); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	for _, name := range []string{FileName(2), "backup_abc.json", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s should survive: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, FileName(1))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("%s should be pruned", FileName(1))
	}
}

func TestPruneMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	if removed := NewPruner(dir, 1, zaptest.NewLogger(t)).Prune(context.Background()); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}

func TestParseName(t *testing.T) {
	cases := map[string]bool{
		"backup_1700000000000.json": true,
		"backup_.json":              false,
		"backup_-5.json":            false,
		"backup_12.json.tmp":        false,
		"snapshot_12.json":          false,
		"backup_12a.json":           false,
	}
	for name, want := range cases {
		if _, ok := ParseName(name); ok != want {
			t.Errorf("ParseName(%q) ok = %v, want %v", name, ok, want)
		}
	}
}

/*──────────────────────────── restore semantics ───────────────────────────*/

func TestRestoreNullSettingsLeavesStoreAlone(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	want, _ := st.PutStreamSettings(ctx, content.StreamSettingData{FeaturedChannel: "keep", OfflineBehavior: "hide"})

	dir := t.TempDir()
	path := filepath.Join(dir, FileName(42))
	raw := `{"announcements":[],"streamSettings":null,"streamChannels":[],"themeSettings":[],` +
		`"activeThemeId":null,"timestamp":"2025-01-01T00:00:00Z"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := NewRestorer(st, zaptest.NewLogger(t)).RestoreFile(ctx, path); err != nil {
		t.Fatalf("RestoreFile: %v", err)
	}
	got, err := st.GetStreamSettings(ctx)
	if err != nil || got == nil || *got != want {
		t.Fatalf("settings = %+v, %v; want %+v", got, err, want)
	}
}

func TestRestoreMissingCollectionIsSkipped(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedScenario(t, st)

	snap := &Snapshot{
		Announcements: []content.Announcement{},
		CreatedAt:     time.Now(),
	}
	if err := NewRestorer(st, zaptest.NewLogger(t)).Restore(ctx, snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ann, _ := st.ListAnnouncements(ctx); len(ann) != 0 {
		t.Fatalf("announcements not cleared: %d", len(ann))
	}
	if ch, _ := st.ListStreamChannels(ctx); len(ch) != 2 {
		t.Fatalf("channels touched: %d", len(ch))
	}
	if th, _ := st.ListThemes(ctx); len(th) != 1 {
		t.Fatalf("themes touched: %d", len(th))
	}
}

func TestRestoreActivatesThemeByPosition(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedScenario(t, st)

	active := int64(20)
	snap := &Snapshot{
		ThemeSettings: []content.ThemeSetting{
			{ID: 10, ThemeData: content.ThemeData{Name: "A", IsActive: true}},
			{ID: 20, ThemeData: content.ThemeData{Name: "B"}},
			{ID: 30, ThemeData: content.ThemeData{Name: "C"}},
		},
		ActiveThemeID: &active,
		CreatedAt:     time.Now(),
	}

	r := NewRestorer(st, zaptest.NewLogger(t))
	for i := 0; i < 2; i++ {
		if err := r.Restore(ctx, snap); err != nil {
			t.Fatalf("Restore #%d: %v", i, err)
		}
		themes, _ := st.ListThemes(ctx)
		var names []string
		for _, th := range themes {
			if th.IsActive {
				names = append(names, th.Name)
			}
		}
		if len(names) != 1 || names[0] != "B" {
			t.Fatalf("restore #%d: active themes = %v, want [B]", i, names)
		}
	}
}

func TestRestoreUnknownActiveIDKeepsFlags(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	stale := int64(99)
	snap := &Snapshot{
		ThemeSettings: []content.ThemeSetting{
			{ID: 1, ThemeData: content.ThemeData{Name: "A"}},
			{ID: 2, ThemeData: content.ThemeData{Name: "B", IsActive: true}},
		},
		ActiveThemeID: &stale,
		CreatedAt:     time.Now(),
	}
	if err := NewRestorer(st, zaptest.NewLogger(t)).Restore(ctx, snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := st.ActiveTheme(ctx)
	if err != nil || got.Name != "B" {
		t.Fatalf("active = %+v, %v; want B", got, err)
	}
}

func TestRestorePartialFailureKeepsEarlierSteps(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	seedScenario(t, src)
	path, err := NewWriter(t.TempDir(), src, zaptest.NewLogger(t)).Write(ctx)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	dst := memory.New()
	oldTheme, _ := dst.CreateTheme(ctx, content.ThemeData{Name: "Untouched", IsActive: true})
	broken := failingStore{Store: dst, failOn: "create-channel"}

	before := testutil.ToFloat64(metrics.RestoreErrorsTotal)
	err = NewRestorer(broken, zaptest.NewLogger(t)).RestoreFile(ctx, path)
	if !errors.Is(err, errBoom) || !strings.Contains(err.Error(), "stream channels") {
		t.Fatalf("err = %v, want wrapped boom from stream channels", err)
	}
	if got := testutil.ToFloat64(metrics.RestoreErrorsTotal) - before; got != 1 {
		t.Fatalf("restore error counter delta = %v, want 1", got)
	}

	if ann, _ := dst.ListAnnouncements(ctx); len(ann) != 2 {
		t.Fatalf("announcements = %d, want 2", len(ann))
	}
	if st, _ := dst.GetStreamSettings(ctx); st == nil || st.FeaturedChannel != "rennsz" {
		t.Fatalf("stream settings not restored: %+v", st)
	}
	if ch, _ := dst.ListStreamChannels(ctx); len(ch) != 0 {
		t.Fatalf("channels = %d, want 0", len(ch))
	}
	th, _ := dst.ListThemes(ctx)
	if len(th) != 1 || th[0].ID != oldTheme.ID {
		t.Fatalf("themes touched after failure: %+v", th)
	}
}

func TestRestoreFileMalformedWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seedScenario(t, st)

	path := filepath.Join(t.TempDir(), FileName(7))
	if err := os.WriteFile(path, []byte(`{"announcements": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewRestorer(st, zaptest.NewLogger(t)).RestoreFile(ctx, path); err == nil {
		t.Fatalf("expected decode error")
	}
	if n := countRestoreLogs(t, st); n != 0 {
		t.Fatalf("restore log entries = %d, want 0", n)
	}
	if ann, _ := st.ListAnnouncements(ctx); len(ann) != 2 {
		t.Fatalf("announcements changed: %d", len(ann))
	}
}

func TestWriterStaysAheadOfNewestFileAfterClockStepBack(t *testing.T) {
	dir := t.TempDir()
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if err := os.WriteFile(filepath.Join(dir, FileName(future)), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := NewWriter(dir, memory.New(), zaptest.NewLogger(t))
	w.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	path, err := w.Write(context.Background())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ms, _ := ParseName(filepath.Base(path)); ms != future+1 {
		t.Fatalf("name millis = %d, want %d", ms, future+1)
	}
	latest, err := Latest(dir)
	if err != nil || latest.Path != path {
		t.Fatalf("Latest = %+v, %v; want %s", latest, err, path)
	}
}

func TestPruneContinuesPastFailedRemove(t *testing.T) {
	dir := t.TempDir()
	for ms := int64(1); ms <= 5; ms++ {
		if err := os.WriteFile(filepath.Join(dir, FileName(ms)), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	p := NewPruner(dir, 2, zaptest.NewLogger(t))
	p.remove = func(path string) error {
		if filepath.Base(path) == FileName(1) {
			return os.ErrPermission
		}
		return os.Remove(path)
	}
	if removed := p.Prune(context.Background()); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for ms, want := range map[int64]bool{1: true, 2: false, 3: false, 4: true, 5: true} {
		_, err := os.Stat(filepath.Join(dir, FileName(ms)))
		if exists := err == nil; exists != want {
			t.Fatalf("%s exists = %v, want %v", FileName(ms), exists, want)
		}
	}
	if got := testutil.ToFloat64(metrics.SnapshotsOnDisk); got != 3 {
		t.Fatalf("on-disk gauge = %v, want 3", got)
	}
}
