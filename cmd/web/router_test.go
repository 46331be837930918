package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/yanizio/streamsite/internal/component/componenttest"
	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/requestinfo"
)

func TestRouterServesComponentsAndOps(t *testing.T) {
	env := componenttest.NewEnv(t)
	res, err := requestinfo.NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	h, err := buildRouter(env, res, false)
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}

	rr := componenttest.Do(t, h, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing: %v", rr.Header())
	}

	rr = componenttest.Do(t, h, http.MethodGet, "/api/themes", nil, nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("themes = %d %q", rr.Code, rr.Body.String())
	}

	// Session cookie issued by /api/admin/login unlocks admin routes.
	login := componenttest.Do(t, h, http.MethodPost, "/api/admin/login",
		map[string]string{"username": "admin", "password": componenttest.Password}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login = %d %s", login.Code, login.Body.String())
	}
	cookie := login.Result().Cookies()[0]

	rr = componenttest.Do(t, h, http.MethodPost, "/api/themes", map[string]any{
		"name": "Gold", "primaryColor": "#000", "secondaryColor": "#111", "accentColor": "#D4AF37",
		"textColor": "#fff", "backgroundType": "color", "backgroundValue": "#000",
		"headingFont": "Inter", "bodyFont": "Inter", "isActive": true,
	}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create theme = %d %s", rr.Code, rr.Body.String())
	}

	rr = componenttest.Do(t, h, http.MethodPost, "/api/backups", nil, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("snapshot = %d %s", rr.Code, rr.Body.String())
	}

	var logs []content.ActivityLog
	componenttest.Decode(t, componenttest.Do(t, h, http.MethodGet, "/api/logs", nil, cookie), &logs)
	if len(logs) < 2 {
		t.Fatalf("logs = %+v", logs)
	}

	if rr := componenttest.Do(t, h, http.MethodGet, "/metrics", nil, nil); rr.Code != http.StatusOK ||
		!strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics = %d", rr.Code)
	}
}
