// internal/vault/vault.go
//
// Resolves `vault:<mount>/<path>#<key>` configuration values against a
// Vault KV v2 engine.
//
// Workflow
// --------
//  1. config.Load sees at least one `vault:` value and calls New.
//  2. Each Resolve splits the reference, reads the whole secret at
//     <mount>/<path> once, and picks <key> out of it.  The admin password
//     hash, the session secret, and the MySQL DSN usually live in one
//     secret, so boot costs a single round trip.
//  3. The token is kept alive by a LifetimeWatcher until ctx ends.
//
// VAULT_ADDR and VAULT_TOKEN come from the environment.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"golang.org/x/sync/singleflight"
)

// RefPrefix marks a configuration value as a Vault reference.
const RefPrefix = "vault:"

// readFunc returns the data map of the KV v2 secret rel under mount.
type readFunc func(ctx context.Context, mount, rel string) (map[string]any, error)

// Client resolves references.  It is safe for concurrent use.
type Client struct {
	read  readFunc
	logFn func(string, ...any)

	group   singleflight.Group
	mu      sync.Mutex
	secrets map[string]map[string]any // secret path → data
}

// New dials Vault from the environment and starts token renewal, which
// stops with ctx.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault: read environment: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault: new client: %w", err)
	}

	c := newClient(func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	}, logFn)
	go c.keepAlive(ctx, api)
	return c, nil
}

func newClient(read readFunc, logFn func(string, ...any)) *Client {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}
	return &Client{read: read, logFn: logFn, secrets: make(map[string]map[string]any)}
}

// ParseRef splits `vault:<path>#<key>` into path and key.
func ParseRef(ref string) (path, key string, err error) {
	rest, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("vault ref %q: missing %q prefix", ref, RefPrefix)
	}
	path, key, ok = strings.Cut(rest, "#")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("vault ref %q: want vault:<path>#<key>", ref)
	}
	return path, key, nil
}

// Resolve returns the string stored under the key a reference names.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	data, err := c.secret(ctx, path)
	if err != nil {
		return "", err
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in %s", key, path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: %s#%s is %T, want string", path, key, raw)
	}
	return s, nil
}

// secret reads path once per Client.  Concurrent first reads share one
// request.
func (c *Client) secret(ctx context.Context, path string) (map[string]any, error) {
	c.mu.Lock()
	data, ok := c.secrets[path]
	c.mu.Unlock()
	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		mount, rel := splitMount(path)
		if rel == "" {
			return nil, errors.New("vault: secret path needs <mount>/<path>")
		}
		data, err := c.read(ctx, mount, rel)
		if err != nil {
			return nil, fmt.Errorf("vault: read %s: %w", path, err)
		}
		c.mu.Lock()
		c.secrets[path] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// keepAlive renews the token for as long as Vault allows it.
func (c *Client) keepAlive(ctx context.Context, api *vault.Client) {
	sec, err := api.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		c.logFn("vault: token lookup failed: %v", err)
		return
	}
	if renewable, _ := sec.TokenIsRenewable(); !renewable {
		return
	}
	ttl, _ := sec.TokenTTL()
	w, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: &vault.SecretAuth{
			ClientToken:   api.Token(),
			Renewable:     true,
			LeaseDuration: int(ttl.Seconds()),
		}},
	})
	if err != nil {
		c.logFn("vault: token watcher: %v", err)
		return
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

// splitMount separates the KV mount from the path below it.
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}
