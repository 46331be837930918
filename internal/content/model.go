// internal/content/model.go
//
// Site content records.
//
// Context
// -------
// Every editable entity on the public site is modelled twice:
//
//   - `<Name>Data`  – the identifier-free payload an admin submits, a
//     snapshot restores, or a store inserts.
//   - `<Name>`      – the stored row, which embeds the payload and adds the
//     store-assigned primary key.
//
// Embedding keeps JSON and `db` column names flat, so the wire shape of a
// stored row is `{"id": 1, "title": …}` while "drop the id" is simply
// `row.AnnouncementData`.
//
// Notes
// -----
//   - JSON names mirror the admin UI and the snapshot file format; change
//     both together.
//   - These structs carry no behaviour beyond tiny helpers.
package content

import "time"

//
// Announcements
//

// AnnouncementData is the editable part of an announcement.  A zero Date
// tells the store to stamp the current time on insert.
type AnnouncementData struct {
	Title    string    `json:"title"    db:"title"   validate:"required,max=200"`
	Content  string    `json:"content"  db:"content" validate:"required"`
	Date     time.Time `json:"date"     db:"date"`
	Featured bool      `json:"featured" db:"featured"`
}

// Announcement mirrors one stored announcement.
type Announcement struct {
	ID int64 `json:"id" db:"id"`
	AnnouncementData
}

//
// Stream settings (singleton)
//

// StreamSettingData controls which channel the hero embed features and what
// the site shows while nobody is live.
type StreamSettingData struct {
	FeaturedChannel string `json:"featuredChannel" db:"featured_channel" validate:"required"`
	AutoDetect      bool   `json:"autoDetect"      db:"auto_detect"`
	OfflineBehavior string `json:"offlineBehavior" db:"offline_behavior" validate:"required"`
}

// StreamSetting is the single stream-settings row.
type StreamSetting struct {
	ID int64 `json:"id" db:"id"`
	StreamSettingData
}

// DefaultOfflineBehavior is applied when an upsert omits the field.
const DefaultOfflineBehavior = "message"

//
// Stream channels
//

// StreamChannelData describes one Twitch channel listed on the site.
type StreamChannelData struct {
	Name        string `json:"name"        db:"name"         validate:"required"`
	URL         string `json:"url"         db:"url"          validate:"required,url"`
	DisplayName string `json:"displayName" db:"display_name" validate:"required"`
	Type        string `json:"type"        db:"type"         validate:"required"`
	Schedule    string `json:"schedule"    db:"schedule"`
	IsMain      bool   `json:"isMain"      db:"is_main"`
}

// StreamChannel mirrors one stored channel.
type StreamChannel struct {
	ID int64 `json:"id" db:"id"`
	StreamChannelData
}

//
// Themes
//

// ThemeData is a visual preset.  Colour and font values are opaque strings
// handed to the front end as-is.
type ThemeData struct {
	Name            string `json:"name"            db:"name"             validate:"required"`
	PrimaryColor    string `json:"primaryColor"    db:"primary_color"    validate:"required"`
	SecondaryColor  string `json:"secondaryColor"  db:"secondary_color"  validate:"required"`
	AccentColor     string `json:"accentColor"     db:"accent_color"     validate:"required"`
	TextColor       string `json:"textColor"       db:"text_color"       validate:"required"`
	BackgroundType  string `json:"backgroundType"  db:"background_type"  validate:"required"`
	BackgroundValue string `json:"backgroundValue" db:"background_value" validate:"required"`
	HeadingFont     string `json:"headingFont"     db:"heading_font"     validate:"required"`
	BodyFont        string `json:"bodyFont"        db:"body_font"        validate:"required"`
	IsActive        bool   `json:"isActive"        db:"is_active"`
}

// ThemeSetting mirrors one stored theme.
type ThemeSetting struct {
	ID int64 `json:"id" db:"id"`
	ThemeData
}

//
// Activity log
//

// Log categories used by the server itself.
const (
	CategoryAuth         = "auth"
	CategoryAnnouncement = "announcement"
	CategoryStream       = "stream"
	CategoryTheme        = "theme"
	CategorySystem       = "system"
)

// ActivityLogData is one audit entry.  AdminID is nil for system actions.
type ActivityLogData struct {
	Action   string `json:"action"   db:"action"   validate:"required"`
	Details  string `json:"details"  db:"details"`
	AdminID  *int64 `json:"adminId"  db:"admin_id"`
	Category string `json:"category" db:"category" validate:"required"`
}

// ActivityLog mirrors one stored audit entry.
type ActivityLog struct {
	ID        int64     `json:"id"        db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	ActivityLogData
}
