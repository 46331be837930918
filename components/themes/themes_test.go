package themes

import (
	"net/http"
	"testing"

	"github.com/yanizio/streamsite/internal/component/componenttest"
	"github.com/yanizio/streamsite/internal/content"
)

func theme(name string, active bool) map[string]any {
	return map[string]any{
		"name":            name,
		"primaryColor":    "#6441A4",
		"secondaryColor":  "#1F1F23",
		"accentColor":     "#D4AF37",
		"textColor":       "#FFFFFF",
		"backgroundType":  "color",
		"backgroundValue": "#0E0E10",
		"headingFont":     "Montserrat",
		"bodyFont":        "Inter",
		"isActive":        active,
	}
}

func TestThemeActivationAndDelete(t *testing.T) {
	env := componenttest.NewEnv(t)
	h := componenttest.Handler(t, env, &Component{})
	admin := componenttest.AdminCookie(t, env)

	for _, in := range []map[string]any{theme("Default", true), theme("Halloween", false)} {
		if rr := componenttest.Do(t, h, http.MethodPost, "/", in, admin); rr.Code != http.StatusCreated {
			t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
		}
	}

	var active content.ThemeSetting
	componenttest.Decode(t, componenttest.Do(t, h, http.MethodGet, "/active", nil, nil), &active)
	if active.Name != "Default" {
		t.Fatalf("active = %+v", active)
	}

	if rr := componenttest.Do(t, h, http.MethodDelete, "/1", nil, admin); rr.Code != http.StatusBadRequest {
		t.Fatalf("delete active = %d", rr.Code)
	}

	if rr := componenttest.Do(t, h, http.MethodPost, "/2/activate", nil, admin); rr.Code != http.StatusOK {
		t.Fatalf("activate = %d", rr.Code)
	}
	componenttest.Decode(t, componenttest.Do(t, h, http.MethodGet, "/active", nil, nil), &active)
	if active.ID != 2 {
		t.Fatalf("active after switch = %+v", active)
	}

	if rr := componenttest.Do(t, h, http.MethodDelete, "/1", nil, admin); rr.Code != http.StatusOK {
		t.Fatalf("delete inactive = %d", rr.Code)
	}
}

func TestNoActiveTheme(t *testing.T) {
	env := componenttest.NewEnv(t)
	h := componenttest.Handler(t, env, &Component{})
	if rr := componenttest.Do(t, h, http.MethodGet, "/active", nil, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("active on empty store = %d", rr.Code)
	}
}
