package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/store"
)

// registerUser drives the real registration endpoint and returns the issued
// token pair.
func registerUser(t *testing.T, s *Server, email string) (access, refresh string) {
	t.Helper()
	code, body := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
		"name":     "Test User",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("register status = %d: %v", code, body)
	}
	data := body["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	return tokens["accessToken"].(string), tokens["refreshToken"].(string)
}

// seedAdmin inserts an admin user directly and logs in through the API.
func seedAdmin(t *testing.T, s *Server) (access string) {
	t.Helper()
	hash, err := auth.HashPassword("admin-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	err = s.store.CreateUser(context.Background(), &store.User{
		ID:           uuid.NewString(),
		Email:        "admin@example.com",
		PasswordHash: hash,
		Name:         "Admin",
		Role:         "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	}, nil)
	if code != http.StatusOK {
		t.Fatalf("admin login status = %d: %v", code, body)
	}
	data := body["data"].(map[string]any)
	return data["tokens"].(map[string]any)["accessToken"].(string)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t, false)

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "lina@example.com",
		"password": "hunter2hunter2",
		"name":     "Lina",
	}, nil)
	requireEnvelope(t, body)
	if code != http.StatusCreated {
		t.Fatalf("register status = %d: %v", code, body)
	}
	if body["message"] != "Account created successfully" {
		t.Errorf("message = %v", body["message"])
	}

	// Auth payload is flat under data, not double-nested.
	data := body["data"].(map[string]any)
	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("data.user = %v", data["user"])
	}
	if user["email"] != "lina@example.com" || user["role"] != "user" {
		t.Errorf("user = %v", user)
	}
	access := data["tokens"].(map[string]any)["accessToken"].(string)

	// Duplicate email conflicts.
	code, body = doJSON(t, s, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "lina@example.com",
		"password": "hunter2hunter2",
		"name":     "Lina",
	}, nil)
	if code != http.StatusConflict {
		t.Errorf("duplicate register status = %d", code)
	}
	if body["message"] != "An account with this email already exists" {
		t.Errorf("message = %v", body["message"])
	}

	// Wrong password and unknown email give the identical response.
	code, body = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "lina@example.com", "password": "wrong-password",
	}, nil)
	if code != http.StatusUnauthorized || body["message"] != "Invalid email or password" {
		t.Errorf("bad password: %d %v", code, body["message"])
	}
	code, body = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "hunter2hunter2",
	}, nil)
	if code != http.StatusUnauthorized || body["message"] != "Invalid email or password" {
		t.Errorf("unknown email: %d %v", code, body["message"])
	}

	// Me requires a token.
	code, body = doJSON(t, s, http.MethodGet, "/api/v1/auth/me", nil, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("me without token status = %d", code)
	}
	if body["message"] != "Missing authentication token" {
		t.Errorf("message = %v", body["message"])
	}

	code, body = doJSON(t, s, http.MethodGet, "/api/v1/auth/me", nil, bearer(access))
	if code != http.StatusOK {
		t.Fatalf("me status = %d: %v", code, body)
	}
	me := body["data"].(map[string]any)["data"].(map[string]any)
	if me["email"] != "lina@example.com" {
		t.Errorf("me = %v", me)
	}
}

func TestRefreshRotation(t *testing.T) {
	s := newTestServer(t, false)
	_, refresh := registerUser(t, s, "rotate@example.com")

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": refresh,
	}, nil)
	if code != http.StatusOK {
		t.Fatalf("refresh status = %d: %v", code, body)
	}
	next := body["data"].(map[string]any)["tokens"].(map[string]any)["refreshToken"].(string)
	if next == refresh {
		t.Error("refresh token was not rotated")
	}

	// The presented token is single-use.
	code, _ = doJSON(t, s, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": refresh,
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", code)
	}

	code, _ = doJSON(t, s, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": next,
	}, nil)
	if code != http.StatusOK {
		t.Errorf("rotated refresh status = %d, want 200", code)
	}
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	s := newTestServer(t, false)
	access, refresh := registerUser(t, s, "logout@example.com")

	code, _ := doJSON(t, s, http.MethodPost, "/api/v1/auth/logout", nil, bearer(access))
	if code != http.StatusOK {
		t.Fatalf("logout status = %d", code)
	}
	code, _ = doJSON(t, s, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": refresh,
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", code)
	}
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	s := newTestServer(t, false)

	// Even on public routes a bad token is an error, not silently ignored.
	code, body := doJSON(t, s, http.MethodGet, "/api/v1/projects", nil, bearer("garbage.token.here"))
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
	requireEnvelope(t, body)
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	access, _ := registerUser(t, s, "maker@example.com")

	// Create requires auth.
	code, _ := doJSON(t, s, http.MethodPost, "/api/v1/projects", map[string]any{
		"title": "Brand Refresh", "slug": "brand-refresh",
	}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create status = %d", code)
	}

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/projects", map[string]any{
		"title":     "Brand Refresh",
		"slug":      "brand-refresh",
		"summary":   "Full identity redesign",
		"tags":      []string{"branding", "design"},
		"published": true,
	}, bearer(access))
	requireEnvelope(t, body)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d: %v", code, body)
	}
	if body["message"] != "Project created successfully" {
		t.Errorf("message = %v", body["message"])
	}
	created := body["data"].(map[string]any)["data"].(map[string]any)
	id := created["id"].(string)

	// Duplicate slug conflicts.
	code, _ = doJSON(t, s, http.MethodPost, "/api/v1/projects", map[string]any{
		"title": "Other", "slug": "brand-refresh",
	}, bearer(access))
	if code != http.StatusConflict {
		t.Errorf("duplicate slug status = %d", code)
	}

	// Fetch by id and by slug, anonymously.
	for _, ref := range []string{id, "brand-refresh"} {
		code, body = doJSON(t, s, http.MethodGet, "/api/v1/projects/"+ref, nil, nil)
		if code != http.StatusOK {
			t.Fatalf("get %q status = %d", ref, code)
		}
		got := body["data"].(map[string]any)["data"].(map[string]any)
		if got["title"] != "Brand Refresh" {
			t.Errorf("get %q title = %v", ref, got["title"])
		}
	}

	// Update by the owner.
	code, body = doJSON(t, s, http.MethodPut, "/api/v1/projects/"+id, map[string]any{
		"title": "Brand Refresh 2.0", "slug": "brand-refresh", "published": true,
	}, bearer(access))
	if code != http.StatusOK {
		t.Fatalf("update status = %d: %v", code, body)
	}

	// A different non-admin user cannot touch it.
	intruder, _ := registerUser(t, s, "intruder@example.com")
	code, _ = doJSON(t, s, http.MethodPut, "/api/v1/projects/"+id, map[string]any{
		"title": "Hijacked", "slug": "brand-refresh",
	}, bearer(intruder))
	if code != http.StatusForbidden {
		t.Errorf("foreign update status = %d, want 403", code)
	}
	code, _ = doJSON(t, s, http.MethodDelete, "/api/v1/projects/"+id, nil, bearer(intruder))
	if code != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", code)
	}

	code, _ = doJSON(t, s, http.MethodDelete, "/api/v1/projects/"+id, nil, bearer(access))
	if code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
	code, body = doJSON(t, s, http.MethodGet, "/api/v1/projects/"+id, nil, nil)
	if code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
	if body["message"] != "Project not found" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestProjectDraftVisibility(t *testing.T) {
	s := newTestServer(t, false)
	access, _ := registerUser(t, s, "draft@example.com")

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/projects", map[string]any{
		"title": "Secret Draft", "slug": "secret-draft", "published": false,
	}, bearer(access))
	if code != http.StatusCreated {
		t.Fatalf("create status = %d: %v", code, body)
	}
	id := body["data"].(map[string]any)["data"].(map[string]any)["id"].(string)

	// Anonymous callers see a 404, not a 403, for drafts.
	code, _ = doJSON(t, s, http.MethodGet, "/api/v1/projects/"+id, nil, nil)
	if code != http.StatusNotFound {
		t.Errorf("anonymous draft get status = %d, want 404", code)
	}

	// The owner still sees it.
	code, _ = doJSON(t, s, http.MethodGet, "/api/v1/projects/"+id, nil, bearer(access))
	if code != http.StatusOK {
		t.Errorf("owner draft get status = %d, want 200", code)
	}

	// Drafts are excluded from the public list.
	_, body = doJSON(t, s, http.MethodGet, "/api/v1/projects", nil, nil)
	meta := body["data"].(map[string]any)["meta"].(map[string]any)
	if meta["total"] != float64(0) {
		t.Errorf("public list total = %v, want 0", meta["total"])
	}

	// Admins see drafts in the list.
	admin := seedAdmin(t, s)
	_, body = doJSON(t, s, http.MethodGet, "/api/v1/projects", nil, bearer(admin))
	meta = body["data"].(map[string]any)["meta"].(map[string]any)
	if meta["total"] != float64(1) {
		t.Errorf("admin list total = %v, want 1", meta["total"])
	}
}

func TestProjectListPagination(t *testing.T) {
	s := newTestServer(t, false)
	access, _ := registerUser(t, s, "paging@example.com")

	for i := 0; i < 25; i++ {
		code, body := doJSON(t, s, http.MethodPost, "/api/v1/projects", map[string]any{
			"title":     fmt.Sprintf("Project %02d", i),
			"slug":      fmt.Sprintf("project-%02d", i),
			"published": true,
		}, bearer(access))
		if code != http.StatusCreated {
			t.Fatalf("create %d status = %d: %v", i, code, body)
		}
	}

	_, body := doJSON(t, s, http.MethodGet, "/api/v1/projects?page=1&limit=10", nil, nil)
	requireEnvelope(t, body)
	data := body["data"].(map[string]any)
	if n := len(data["data"].([]any)); n != 10 {
		t.Errorf("page 1 items = %d, want 10", n)
	}
	meta := data["meta"].(map[string]any)
	if meta["total"] != float64(25) || meta["totalPages"] != float64(3) {
		t.Errorf("meta = %v", meta)
	}
	if meta["isNextPage"] != true || meta["isPrevPage"] != false {
		t.Errorf("meta flags = %v", meta)
	}

	_, body = doJSON(t, s, http.MethodGet, "/api/v1/projects?page=3&limit=10", nil, nil)
	data = body["data"].(map[string]any)
	if n := len(data["data"].([]any)); n != 5 {
		t.Errorf("page 3 items = %d, want 5", n)
	}
	meta = data["meta"].(map[string]any)
	if meta["isNextPage"] != false || meta["isPrevPage"] != true {
		t.Errorf("meta flags = %v", meta)
	}

	// Out-of-range params are clamped, not rejected.
	code, body := doJSON(t, s, http.MethodGet, "/api/v1/projects?page=0&limit=9999", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("clamped list status = %d", code)
	}
	meta = body["data"].(map[string]any)["meta"].(map[string]any)
	if meta["page"] != float64(1) || meta["limit"] != float64(100) {
		t.Errorf("clamped meta = %v", meta)
	}
}

func TestContactForm(t *testing.T) {
	s := newTestServer(t, false)

	code, body := doJSON(t, s, http.MethodPost, "/api/v1/contacts", map[string]string{
		"name":    "Walk-in Client",
		"email":   "client@example.com",
		"phone":   "+96171234567",
		"subject": "New website",
		"message": "We would like a quote for a marketing site.",
	}, nil)
	requireEnvelope(t, body)
	if code != http.StatusCreated {
		t.Fatalf("contact create status = %d: %v", code, body)
	}
	if body["message"] != "Thank you, your message has been received" {
		t.Errorf("message = %v", body["message"])
	}

	// Field failures come back as one translated 400 message.
	code, body = doJSON(t, s, http.MethodPost, "/api/v1/contacts", map[string]string{
		"name":  "X",
		"email": "not-an-email",
		"phone": "12345",
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("invalid contact status = %d", code)
	}
	if body["status"] != "error" {
		t.Errorf("status = %v", body["status"])
	}

	// Reading the inbox is admin-only.
	code, _ = doJSON(t, s, http.MethodGet, "/api/v1/contacts", nil, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous inbox status = %d, want 401", code)
	}
	user, _ := registerUser(t, s, "plain@example.com")
	code, _ = doJSON(t, s, http.MethodGet, "/api/v1/contacts", nil, bearer(user))
	if code != http.StatusForbidden {
		t.Errorf("non-admin inbox status = %d, want 403", code)
	}

	admin := seedAdmin(t, s)
	code, body = doJSON(t, s, http.MethodGet, "/api/v1/contacts", nil, bearer(admin))
	if code != http.StatusOK {
		t.Fatalf("admin inbox status = %d", code)
	}
	items := body["data"].(map[string]any)["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("inbox items = %d, want 1", len(items))
	}
	contact := items[0].(map[string]any)
	id := contact["id"].(string)
	if contact["read"] != false {
		t.Errorf("new contact read = %v, want false", contact["read"])
	}

	code, _ = doJSON(t, s, http.MethodPost, "/api/v1/contacts/"+id+"/read", nil, bearer(admin))
	if code != http.StatusOK {
		t.Errorf("mark read status = %d", code)
	}
	_, body = doJSON(t, s, http.MethodGet, "/api/v1/contacts/"+id, nil, bearer(admin))
	got := body["data"].(map[string]any)["data"].(map[string]any)
	if got["read"] != true {
		t.Errorf("read flag = %v, want true", got["read"])
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t, false)
	admin := seedAdmin(t, s)

	code, _ := doJSON(t, s, http.MethodPut, "/api/v1/settings", map[string]any{
		"values": map[string]string{
			"site.title":   "Atelier Studio",
			"site.tagline": "Design that ships",
		},
	}, bearer(admin))
	if code != http.StatusOK {
		t.Fatalf("settings put status = %d", code)
	}

	// Settings are public to read.
	code, body := doJSON(t, s, http.MethodGet, "/api/v1/settings", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("settings get status = %d", code)
	}
	values := body["data"].(map[string]any)["data"].(map[string]any)
	if values["site.title"] != "Atelier Studio" {
		t.Errorf("settings = %v", values)
	}

	// Upsert overwrites.
	code, _ = doJSON(t, s, http.MethodPut, "/api/v1/settings", map[string]any{
		"values": map[string]string{"site.title": "Atelier"},
	}, bearer(admin))
	if code != http.StatusOK {
		t.Fatalf("settings put status = %d", code)
	}
	_, body = doJSON(t, s, http.MethodGet, "/api/v1/settings/site.title", nil, nil)
	got := body["data"].(map[string]any)["data"].(map[string]any)
	if got["value"] != "Atelier" {
		t.Errorf("setting = %v", got)
	}

	// Writes are admin-only.
	code, _ = doJSON(t, s, http.MethodPut, "/api/v1/settings", map[string]any{
		"values": map[string]string{"site.title": "Defaced"},
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous settings put status = %d, want 401", code)
	}
}

func TestHealthBypassesEnvelope(t *testing.T) {
	s := newTestServer(t, false)

	code, body := doJSON(t, s, http.MethodGet, "/health", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if _, wrapped := body["timestamp"]; wrapped {
		t.Error("health must not be enveloped")
	}
}
