// internal/config/model.go
//
// Typed configuration model for streamsite.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `STREAMSITE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Durations accept Go syntax (`90s`, `5m`).
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import (
	"path/filepath"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Store section
//

// Store selects the content backend.  `memory` keeps everything in process
// and relies on snapshots for durability; `mysql` needs a DSN with
// parseTime=true.
type Store struct {
	Driver string `koanf:"driver" validate:"oneof=memory mysql"`
	DSN    string `koanf:"dsn"    validate:"required_if=Driver mysql"`
	Seed   bool   `koanf:"seed"`
}

//
// Backup section
//

// Backup tunes the snapshot scheduler.  Dir is relative to Paths.Root
// unless absolute.
type Backup struct {
	Dir                string        `koanf:"dir"                  validate:"required"`
	Retention          int           `koanf:"retention"            validate:"min=1"`
	Interval           time.Duration `koanf:"interval"             validate:"gt=0"`
	InitialDelay       time.Duration `koanf:"initial_delay"        validate:"gte=0"`
	RestoreAfterBackup bool          `koanf:"restore_after_backup"`
	CycleTimeout       time.Duration `koanf:"cycle_timeout"        validate:"gte=0"`
}

//
// Admin and session sections
//

// Admin is the single back-office account.  PasswordHash is a bcrypt hash,
// typically injected from Vault.
type Admin struct {
	ID           int64  `koanf:"id"            validate:"min=1"`
	Username     string `koanf:"username"      validate:"required"`
	PasswordHash string `koanf:"password_hash" validate:"required"`
}

// Session configures the signed admin cookie.
type Session struct {
	Secret     string        `koanf:"secret"      validate:"required,min=32"`
	TTL        time.Duration `koanf:"ttl"         validate:"gt=0"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	Secure     bool          `koanf:"secure"`
}

//
// Integrations
//

// Discord holds the admin-activity webhook.  Empty disables delivery.
type Discord struct {
	WebhookURL string `koanf:"webhook_url" validate:"omitempty,url"`
}

// Geo points at an optional MaxMind City database used to enrich activity
// notifications.  Empty disables lookups.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or STREAMSITE_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // STREAMSITE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Store   Store   `koanf:"store"`
	Backup  Backup  `koanf:"backup"`
	Admin   Admin   `koanf:"admin"`
	Session Session `koanf:"session"`
	Discord Discord `koanf:"discord"`
	Geo     Geo     `koanf:"geo"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// Abs resolves p against Paths.Root.  Absolute and empty paths pass
// through unchanged.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}
