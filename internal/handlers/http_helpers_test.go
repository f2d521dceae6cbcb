package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PortNumber53/depenados/internal/models"
	"github.com/gorilla/mux"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, models.Counter{ID: models.CounterID, Brigas: 2})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected Content-Type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"brigas":2`) {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusNotFound, msgMemberNotFound)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	want := `{"error":"` + msgMemberNotFound + `"}` + "\n"
	if rr.Body.String() != want {
		t.Fatalf("expected %q, got %q", want, rr.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/members",
		strings.NewReader(`{"name":"Zé","nickname":"zezinho","extra":true}`))

	var in models.MemberInput
	if err := decodeJSON(req, &in); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if in.Name == nil || *in.Name != "Zé" || in.Nickname == nil || *in.Nickname != "zezinho" {
		t.Fatalf("unexpected input %#v", in)
	}
	if in.Bio != nil {
		t.Fatalf("absent field should stay nil")
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"garbage":   `not-json`,
		"empty":     ``,
		"truncated": `{"content":"` + strings.Repeat("a", maxJSONBody) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(body))
			var in models.StoryInput
			if err := decodeJSON(req, &in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPathVar(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "ev-1"})

	if got := pathVar(req, "id"); got != "ev-1" {
		t.Fatalf("expected ev-1, got %q", got)
	}
	if got := pathVar(req, "slug"); got != "" {
		t.Fatalf("expected empty for a missing var, got %q", got)
	}
}
