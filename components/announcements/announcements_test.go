package announcements

import (
	"context"
	"net/http"
	"testing"

	"github.com/yanizio/streamsite/internal/component/componenttest"
	"github.com/yanizio/streamsite/internal/content"
)

func TestAnnouncementLifecycle(t *testing.T) {
	env := componenttest.NewEnv(t)
	h := componenttest.Handler(t, env, &Component{})
	admin := componenttest.AdminCookie(t, env)

	// Anonymous writes are refused.
	if rr := componenttest.Do(t, h, http.MethodPost, "/", map[string]any{"title": "x", "content": "y"}, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", rr.Code)
	}

	rr := componenttest.Do(t, h, http.MethodPost, "/", map[string]any{"title": "Launch", "content": "We are live", "featured": true}, admin)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}
	var created content.Announcement
	componenttest.Decode(t, rr, &created)
	if created.ID == 0 || created.Date.IsZero() {
		t.Fatalf("created = %+v", created)
	}

	rr = componenttest.Do(t, h, http.MethodGet, "/featured", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("featured = %d", rr.Code)
	}

	// Partial update keeps the content field.
	rr = componenttest.Do(t, h, http.MethodPut, "/1", map[string]any{"title": "Relaunch"}, admin)
	var updated content.Announcement
	componenttest.Decode(t, rr, &updated)
	if rr.Code != http.StatusOK || updated.Title != "Relaunch" || updated.Content != "We are live" {
		t.Fatalf("update = %d %+v", rr.Code, updated)
	}

	if rr := componenttest.Do(t, h, http.MethodDelete, "/1", nil, admin); rr.Code != http.StatusOK {
		t.Fatalf("delete = %d", rr.Code)
	}
	if rr := componenttest.Do(t, h, http.MethodGet, "/1", nil, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rr.Code)
	}
	if rr := componenttest.Do(t, h, http.MethodGet, "/featured", nil, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("featured after delete = %d", rr.Code)
	}

	env.Activity.Wait()
	logs, _ := env.Store.ListLogs(context.Background())
	if len(logs) != 3 {
		t.Fatalf("activity entries = %d, want 3", len(logs))
	}
	if logs[0].AdminID == nil || *logs[0].AdminID != 1 {
		t.Fatalf("admin id = %v", logs[0].AdminID)
	}
}

func TestAnnouncementValidationAndIDs(t *testing.T) {
	env := componenttest.NewEnv(t)
	h := componenttest.Handler(t, env, &Component{})
	admin := componenttest.AdminCookie(t, env)

	if rr := componenttest.Do(t, h, http.MethodPost, "/", map[string]any{"content": "no title"}, admin); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing title = %d", rr.Code)
	}
	if rr := componenttest.Do(t, h, http.MethodPost, "/", `{"title":`, admin); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed = %d", rr.Code)
	}
	if rr := componenttest.Do(t, h, http.MethodGet, "/abc", nil, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", rr.Code)
	}
	if rr := componenttest.Do(t, h, http.MethodPost, "/99/feature", nil, admin); rr.Code != http.StatusNotFound {
		t.Fatalf("feature missing = %d", rr.Code)
	}
}
