//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, and timestamp).  These
//  structs are inert.  They contain no pointers to database handles or
//  large buffers, so they are safe to log or JSON-encode.
//
//  The admin activity recorder uses Summary() as the "Client" line of each
//  Discord notification.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string `json:"-"`
	Browser     string `json:"browser"`    // "Chrome", "Firefox", "Safari", etc.
	Version     string `json:"version"`    // "124.0"
	OS          string `json:"os"`         // "macOS", "Windows", "Android", "iOS", etc.
	OSVersion   string `json:"osVersion"`  // "14.5", "11"
	Device      string `json:"device"`     // "Desktop", "Phone", "Tablet", "TV", ...
	Platform    string `json:"platform"`   // "Mac", "Windows", "Linux", "iPad", ...
	IsBot       bool   `json:"isBot"`
	PrimaryLang string `json:"lang"`       // First tag from Accept-Language
}

// Geo holds IP-based geolocation hints.  Fields other than IP are
// best-effort and empty when no database is configured.
type Geo struct {
	IP         net.IP `json:"ip"`
	CountryISO string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
}

// RequestInfo is stored in the request context by Resolver.Enrich.
type RequestInfo struct {
	UA        UA        `json:"ua"`
	Geo       Geo       `json:"geo"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary renders a one-line client description, e.g.
// "Chrome 124 on macOS (Desktop) from Chicago, US [203.0.113.9]".
func (ri *RequestInfo) Summary() string {
	if ri == nil {
		return "unknown client"
	}
	var b strings.Builder
	browser := ri.UA.Browser
	if browser == "" || browser == "Unknown" {
		browser = "Unknown browser"
	}
	b.WriteString(browser)
	if ri.UA.Version != "" && ri.UA.Version != "0" {
		b.WriteString(" " + ri.UA.Version)
	}
	if ri.UA.OS != "" && ri.UA.OS != "Unknown" {
		fmt.Fprintf(&b, " on %s", ri.UA.OS)
	}
	if ri.UA.Device != "" {
		fmt.Fprintf(&b, " (%s)", ri.UA.Device)
	}
	switch {
	case ri.Geo.City != "" && ri.Geo.CountryISO != "":
		fmt.Fprintf(&b, " from %s, %s", ri.Geo.City, ri.Geo.CountryISO)
	case ri.Geo.CountryISO != "":
		fmt.Fprintf(&b, " from %s", ri.Geo.CountryISO)
	}
	if ri.Geo.IP != nil {
		fmt.Fprintf(&b, " [%s]", ri.Geo.IP)
	}
	if ri.UA.IsBot {
		b.WriteString(" (bot)")
	}
	return b.String()
}

//
//  -----------------------------
//  Resolver
//  -----------------------------
//

// Resolver owns the optional MaxMind handle.  The reader is safe for
// concurrent reads, which is all we ever perform.
type Resolver struct {
	geo *geoip2.Reader
}

// NewResolver opens the GeoLite2-City database at dbPath.  An empty path
// yields a Resolver without geolocation.
func NewResolver(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open geo db: %w", err)
	}
	return &Resolver{geo: r}, nil
}

// Close releases the geo database.
func (res *Resolver) Close() error {
	if res == nil || res.geo == nil {
		return nil
	}
	return res.geo.Close()
}

// lookupGeo returns best-effort Geo data.
func (res *Resolver) lookupGeo(ip net.IP) Geo {
	if res == nil || res.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := res.geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithInfo stores ri in ctx.
func WithInfo(ctx context.Context, ri *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, ri)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(uaHeader, acceptLang string) UA {
	u := uasurfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         uaHeader,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     trimVersion(u.Browser.Version),
		OS:          osName,
		OSVersion:   trimVersion(u.OS.Version),
		Device:      deviceTypeToString(u.DeviceType),
		Platform:    strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0".
func trimVersion(v uasurfer.Version) string {
	out := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	if out == "" {
		return "0"
	}
	return out
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(strings.TrimSpace(tag), ";")
	return strings.ToLower(tag)
}
