// internal/store/memory/memory.go
//
// In-process implementation of store.Store.
//
// Context
// -------
// The default deployment keeps all site content in memory and relies on the
// backup engine for durability.  Each collection is a map keyed by an
// auto-incrementing id plus a slice that preserves insertion order, so list
// calls are deterministic without sorting on every read.
//
// Notes
// -----
//   - One RWMutex guards the whole store.  Individual calls are atomic;
//     multi-call sequences (a restore, for example) are serialised by the
//     backup gate, not here.
//   - Returned rows are copies.  Callers may mutate them freely.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/store"
)

// Compile-time assertion: *Store satisfies store.Store.
var _ store.Store = (*Store)(nil)

// table is an ordered, id-keyed collection.
type table[T any] struct {
	rows  map[int64]T
	order []int64
	next  int64
}

func newTable[T any]() table[T] {
	return table[T]{rows: map[int64]T{}, next: 1}
}

func (t *table[T]) insert(row func(id int64) T) T {
	id := t.next
	t.next++
	r := row(id)
	t.rows[id] = r
	t.order = append(t.order, id)
	return r
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// Store keeps every collection in process memory.  Zero value is unusable;
// construct with New.
type Store struct {
	mu sync.RWMutex

	announcements table[content.Announcement]
	settings      *content.StreamSetting
	channels      table[content.StreamChannel]
	themes        table[content.ThemeSetting]
	logs          table[content.ActivityLog]

	now func() time.Time
}

// New returns an empty Store.  Use store.Seed for launch content.
func New() *Store {
	return &Store{
		announcements: newTable[content.Announcement](),
		channels:      newTable[content.StreamChannel](),
		themes:        newTable[content.ThemeSetting](),
		logs:          newTable[content.ActivityLog](),
		now:           time.Now,
	}
}

/*──────────────────────────── announcements ───────────────────────────────*/

func (s *Store) ListAnnouncements(ctx context.Context) ([]content.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := s.announcements.list()
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) GetAnnouncement(ctx context.Context, id int64) (content.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return content.Announcement{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements.rows[id]
	if !ok {
		return content.Announcement{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAnnouncement(ctx context.Context, d content.AnnouncementData) (content.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return content.Announcement{}, err
	}
	if d.Date.IsZero() {
		d.Date = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Featured {
		s.unfeatureLocked(0)
	}
	return s.announcements.insert(func(id int64) content.Announcement {
		return content.Announcement{ID: id, AnnouncementData: d}
	}), nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, id int64, d content.AnnouncementData) (content.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return content.Announcement{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.announcements.rows[id]
	if !ok {
		return content.Announcement{}, store.ErrNotFound
	}
	if d.Date.IsZero() {
		d.Date = cur.Date
	}
	if d.Featured {
		s.unfeatureLocked(id)
	}
	cur.AnnouncementData = d
	s.announcements.rows[id] = cur
	return cur, nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.announcements.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FeaturedAnnouncement(ctx context.Context) (content.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return content.Announcement{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.announcements.order {
		if a := s.announcements.rows[id]; a.Featured {
			return a, nil
		}
	}
	return content.Announcement{}, store.ErrNotFound
}

func (s *Store) SetFeaturedAnnouncement(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	s.unfeatureLocked(id)
	a.Featured = true
	s.announcements.rows[id] = a
	return nil
}

// unfeatureLocked clears the featured flag on every announcement but keep.
func (s *Store) unfeatureLocked(keep int64) {
	for id, a := range s.announcements.rows {
		if id != keep && a.Featured {
			a.Featured = false
			s.announcements.rows[id] = a
		}
	}
}

/*──────────────────────────── stream settings ─────────────────────────────*/

func (s *Store) GetStreamSettings(ctx context.Context) (*content.StreamSetting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) PutStreamSettings(ctx context.Context, d content.StreamSettingData) (content.StreamSetting, error) {
	if err := ctx.Err(); err != nil {
		return content.StreamSetting{}, err
	}
	if d.OfflineBehavior == "" {
		d.OfflineBehavior = content.DefaultOfflineBehavior
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		s.settings = &content.StreamSetting{ID: 1}
	}
	s.settings.StreamSettingData = d
	return *s.settings, nil
}

/*──────────────────────────── stream channels ─────────────────────────────*/

func (s *Store) ListStreamChannels(ctx context.Context) ([]content.StreamChannel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels.list(), nil
}

func (s *Store) GetStreamChannel(ctx context.Context, id int64) (content.StreamChannel, error) {
	if err := ctx.Err(); err != nil {
		return content.StreamChannel{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels.rows[id]
	if !ok {
		return content.StreamChannel{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateStreamChannel(ctx context.Context, d content.StreamChannelData) (content.StreamChannel, error) {
	if err := ctx.Err(); err != nil {
		return content.StreamChannel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.IsMain {
		s.clearMainLocked(0)
	}
	return s.channels.insert(func(id int64) content.StreamChannel {
		return content.StreamChannel{ID: id, StreamChannelData: d}
	}), nil
}

func (s *Store) UpdateStreamChannel(ctx context.Context, id int64, d content.StreamChannelData) (content.StreamChannel, error) {
	if err := ctx.Err(); err != nil {
		return content.StreamChannel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.channels.rows[id]
	if !ok {
		return content.StreamChannel{}, store.ErrNotFound
	}
	if d.IsMain {
		s.clearMainLocked(id)
	}
	cur.StreamChannelData = d
	s.channels.rows[id] = cur
	return cur, nil
}

func (s *Store) DeleteStreamChannel(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.channels.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) clearMainLocked(keep int64) {
	for id, c := range s.channels.rows {
		if id != keep && c.IsMain {
			c.IsMain = false
			s.channels.rows[id] = c
		}
	}
}

/*──────────────────────────── themes ──────────────────────────────────────*/

func (s *Store) ListThemes(ctx context.Context) ([]content.ThemeSetting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themes.list(), nil
}

func (s *Store) GetTheme(ctx context.Context, id int64) (content.ThemeSetting, error) {
	if err := ctx.Err(); err != nil {
		return content.ThemeSetting{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.themes.rows[id]
	if !ok {
		return content.ThemeSetting{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ActiveTheme(ctx context.Context) (content.ThemeSetting, error) {
	if err := ctx.Err(); err != nil {
		return content.ThemeSetting{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.themes.order {
		if t := s.themes.rows[id]; t.IsActive {
			return t, nil
		}
	}
	return content.ThemeSetting{}, store.ErrNotFound
}

func (s *Store) CreateTheme(ctx context.Context, d content.ThemeData) (content.ThemeSetting, error) {
	if err := ctx.Err(); err != nil {
		return content.ThemeSetting{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.IsActive {
		s.deactivateLocked(0)
	}
	return s.themes.insert(func(id int64) content.ThemeSetting {
		return content.ThemeSetting{ID: id, ThemeData: d}
	}), nil
}

func (s *Store) UpdateTheme(ctx context.Context, id int64, d content.ThemeData) (content.ThemeSetting, error) {
	if err := ctx.Err(); err != nil {
		return content.ThemeSetting{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.themes.rows[id]
	if !ok {
		return content.ThemeSetting{}, store.ErrNotFound
	}
	if d.IsActive {
		s.deactivateLocked(id)
	}
	cur.ThemeData = d
	s.themes.rows[id] = cur
	return cur, nil
}

func (s *Store) DeleteTheme(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.themes.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetActiveTheme(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.themes.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	s.deactivateLocked(id)
	t.IsActive = true
	s.themes.rows[id] = t
	return nil
}

func (s *Store) deactivateLocked(keep int64) {
	for id, t := range s.themes.rows {
		if id != keep && t.IsActive {
			t.IsActive = false
			s.themes.rows[id] = t
		}
	}
}

/*──────────────────────────── activity log ────────────────────────────────*/

func (s *Store) ListLogs(ctx context.Context) ([]content.ActivityLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := s.logs.list()
	s.mu.RUnlock()

	// Newest first; ids break ties inside one clock tick.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) CreateLog(ctx context.Context, d content.ActivityLogData) (content.ActivityLog, error) {
	if err := ctx.Err(); err != nil {
		return content.ActivityLog{}, err
	}
	ts := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs.insert(func(id int64) content.ActivityLog {
		return content.ActivityLog{ID: id, Timestamp: ts, ActivityLogData: d}
	}), nil
}
