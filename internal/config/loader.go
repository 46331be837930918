// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml` (optional; env-only deployments skip it).
  3. Environment variables prefixed `STREAMSITE_`, where `__` maps to “.”
     (e.g., `STREAMSITE_BACKUP__RETENTION → backup.retention`).

After merging, every string value that starts with `vault:` is swapped for
the secret it names, the tree is unmarshalled into strongly-typed structs,
defaults are applied, the result is validated, enriched with the runtime
root path, and cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read, env overlay.
  • ERROR spans – YAML parse, env overlay, secret lookup, unmarshal, and
    validation failures.
  • INFO  span  – final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`; this
    lets `go run ./cmd/web` work from any sub-directory.
  • The Vault client is only dialled when a `vault:` reference is present.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/vault"
)

const envPrefix = "STREAMSITE_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:path#key` reference into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// newResolver dials Vault on demand.  Tests swap it out.
var newResolver = func(ctx context.Context) (SecretResolver, error) {
	cli, err := vault.New(ctx, zap.S().Infof)
	if err != nil {
		return nil, err
	}
	return cli, nil
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves STREAMSITE_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, rootDir(), nil)
}

// LoadFrom is Load with an explicit root and resolver.  A nil resolver
// dials Vault the first time a `vault:` value is seen.
func LoadFrom(ctx context.Context, root string, res SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml absent", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: STREAMSITE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, res); err != nil {
		zap.S().Errorw("config secret lookup failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}
	applyDefaults(k, &cfg)

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"store", cfg.Store.Driver,
		"backup_dir", cfg.Abs(cfg.Backup.Dir),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── secrets ─────────────────────────────────────*/

// resolveSecrets replaces every `vault:` string in k with its secret.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	var refs []string
	for key, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vault.RefPrefix) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	sort.Strings(refs)

	if res == nil {
		var err error
		if res, err = newResolver(ctx); err != nil {
			return fmt.Errorf("config: vault client: %w", err)
		}
	}
	for _, key := range refs {
		val, err := res.Resolve(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── defaults ────────────────────────────────────*/

// applyDefaults fills zero values.  Booleans whose default is true are only
// set when the key is absent from every layer.
func applyDefaults(k *koanf.Koanf, c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}

	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if !k.Exists("store.seed") {
		c.Store.Seed = true
	}

	if c.Backup.Dir == "" {
		c.Backup.Dir = "backups"
	}
	if c.Backup.Retention == 0 {
		c.Backup.Retention = 10
	}
	if c.Backup.Interval == 0 {
		c.Backup.Interval = 5 * time.Minute
	}
	if !k.Exists("backup.initial_delay") {
		c.Backup.InitialDelay = 10 * time.Second
	}
	if !k.Exists("backup.restore_after_backup") {
		c.Backup.RestoreAfterBackup = true
	}

	if c.Admin.ID == 0 {
		c.Admin.ID = 1
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "streamsite_session"
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

func Reload(ctx context.Context) error { _, err := Load(ctx); return err }
