package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", fmt.Errorf("no secret for %s", ref)
	}
	return v, nil
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return root
}

func TestLoadDefaults(t *testing.T) {
	root := writeYAML(t, `
admin:
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
session:
  secret: "`+testSecret+`"
`)

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" || cfg.Store.Driver != "memory" || !cfg.Store.Seed {
		t.Fatalf("http/store defaults: %+v %+v", cfg.HTTP, cfg.Store)
	}
	b := cfg.Backup
	if b.Dir != "backups" || b.Retention != 10 || b.Interval != 5*time.Minute ||
		b.InitialDelay != 10*time.Second || !b.RestoreAfterBackup || b.CycleTimeout != 0 {
		t.Fatalf("backup defaults: %+v", b)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.ID != 1 || cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("admin/session defaults: %+v %+v", cfg.Admin, cfg.Session)
	}
	if got := cfg.Abs(b.Dir); got != filepath.Join(root, "backups") {
		t.Fatalf("Abs = %s", got)
	}
	if Get() != cfg {
		t.Fatalf("Get did not return the cached config")
	}
}

func TestLoadExplicitFalseSurvivesDefaults(t *testing.T) {
	root := writeYAML(t, `
store:
  seed: false
backup:
  restore_after_backup: false
  initial_delay: 0s
  interval: 90s
admin:
  password_hash: "x"
session:
  secret: "`+testSecret+`"
`)

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Store.Seed || cfg.Backup.RestoreAfterBackup || cfg.Backup.InitialDelay != 0 {
		t.Fatalf("explicit false/zero overwritten: %+v %+v", cfg.Store, cfg.Backup)
	}
	if cfg.Backup.Interval != 90*time.Second {
		t.Fatalf("interval = %v", cfg.Backup.Interval)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	root := writeYAML(t, `
backup:
  retention: 4
admin:
  password_hash: "x"
session:
  secret: "`+testSecret+`"
`)
	t.Setenv("STREAMSITE_BACKUP__RETENTION", "7")
	t.Setenv("STREAMSITE_HTTP__LISTEN_ADDR", "127.0.0.1:9090")

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backup.Retention != 7 || cfg.HTTP.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("env overlay ignored: %+v %+v", cfg.Backup, cfg.HTTP)
	}
}

func TestLoadResolvesVaultRefs(t *testing.T) {
	root := writeYAML(t, `
admin:
  password_hash: "vault:secret/streamsite#admin_hash"
session:
  secret: "vault:secret/streamsite#session_secret"
`)
	res := fakeResolver{
		"vault:secret/streamsite#admin_hash":     "$2a$10$hash",
		"vault:secret/streamsite#session_secret": testSecret,
	}

	cfg, err := LoadFrom(context.Background(), root, res)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Admin.PasswordHash != "$2a$10$hash" || cfg.Session.Secret != testSecret {
		t.Fatalf("refs not resolved: %+v %+v", cfg.Admin, cfg.Session)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"short secret": `
admin: {password_hash: "x"}
session: {secret: "short"}
`,
		"mysql without dsn": `
store: {driver: mysql}
admin: {password_hash: "x"}
session: {secret: "` + testSecret + `"}
`,
		"bad driver": `
store: {driver: sqlite}
admin: {password_hash: "x"}
session: {secret: "` + testSecret + `"}
`,
		"missing hash": `
session: {secret: "` + testSecret + `"}
`,
	}
	for name, body := range cases {
		t.Run(strings.ReplaceAll(name, " ", "_"), func(t *testing.T) {
			if _, err := LoadFrom(context.Background(), writeYAML(t, body), nil); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
