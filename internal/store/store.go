// internal/store/store.go
//
// State Store contract.
//
// Context
// -------
// Everything mutable on the site lives behind `Store`: announcements, the
// stream-settings singleton, stream channels, themes, and the activity log.
// HTTP components and the backup engine depend only on this interface, so
// the process can run on the in-memory implementation (`store/memory`) or
// on MySQL (`store/sqlstore`) without either caller noticing.
//
// Rules every implementation enforces
// -----------------------------------
//   - At most one announcement is featured, one channel is main, and one
//     theme is active.  Creating or updating a row with the flag set clears
//     it everywhere else.
//   - ListAnnouncements and ListLogs return newest first.  Channels and
//     themes come back in insertion order.
//   - CreateAnnouncement keeps a non-zero Date and stamps now otherwise.
//   - Missing rows yield ErrNotFound.
//
// Notes
// -----
//   - Deleting the active theme is refused at the HTTP layer, not here, so a
//     restore can clear the collection.
package store

import (
	"context"
	"errors"

	"github.com/yanizio/streamsite/internal/content"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the capability interface over all site content.
type Store interface {
	// Announcements
	ListAnnouncements(ctx context.Context) ([]content.Announcement, error)
	GetAnnouncement(ctx context.Context, id int64) (content.Announcement, error)
	CreateAnnouncement(ctx context.Context, a content.AnnouncementData) (content.Announcement, error)
	UpdateAnnouncement(ctx context.Context, id int64, a content.AnnouncementData) (content.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id int64) error
	FeaturedAnnouncement(ctx context.Context) (content.Announcement, error)
	SetFeaturedAnnouncement(ctx context.Context, id int64) error

	// Stream settings.  GetStreamSettings returns (nil, nil) when unset.
	GetStreamSettings(ctx context.Context) (*content.StreamSetting, error)
	PutStreamSettings(ctx context.Context, s content.StreamSettingData) (content.StreamSetting, error)

	// Stream channels
	ListStreamChannels(ctx context.Context) ([]content.StreamChannel, error)
	GetStreamChannel(ctx context.Context, id int64) (content.StreamChannel, error)
	CreateStreamChannel(ctx context.Context, c content.StreamChannelData) (content.StreamChannel, error)
	UpdateStreamChannel(ctx context.Context, id int64, c content.StreamChannelData) (content.StreamChannel, error)
	DeleteStreamChannel(ctx context.Context, id int64) error

	// Themes.  ActiveTheme returns ErrNotFound when no theme is active.
	ListThemes(ctx context.Context) ([]content.ThemeSetting, error)
	GetTheme(ctx context.Context, id int64) (content.ThemeSetting, error)
	ActiveTheme(ctx context.Context) (content.ThemeSetting, error)
	CreateTheme(ctx context.Context, t content.ThemeData) (content.ThemeSetting, error)
	UpdateTheme(ctx context.Context, id int64, t content.ThemeData) (content.ThemeSetting, error)
	DeleteTheme(ctx context.Context, id int64) error
	SetActiveTheme(ctx context.Context, id int64) error

	// Activity log
	ListLogs(ctx context.Context) ([]content.ActivityLog, error)
	CreateLog(ctx context.Context, l content.ActivityLogData) (content.ActivityLog, error)
}

// Transactor is implemented by stores that can run a group of calls
// atomically.  fn receives a Store bound to the transaction; returning an
// error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}
