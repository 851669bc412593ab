package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/events"
	"github.com/atelierhq/atelier-api/internal/i18n"
	"github.com/atelierhq/atelier-api/internal/store"
)

const testLocaleEN = `{
	"common.success": "Operation completed successfully",
	"errors.internal": "Something went wrong, please try again later",
	"errors.notFound": "Resource not found",
	"errors.forbidden": "You are not allowed to perform this action",
	"auth.register.success": "Account created successfully",
	"auth.register.emailExists": "An account with this email already exists",
	"auth.login.success": "Logged in successfully",
	"auth.login.invalid": "Invalid email or password",
	"auth.token.missing": "Missing authentication token",
	"users.found": "User retrieved successfully",
	"projects.list": "Projects retrieved successfully",
	"projects.created": "Project created successfully",
	"projects.notFound": "Project not found",
	"contacts.created": "Thank you, your message has been received",
	"validation.isEmail": "must be a valid email address",
	"validation.isNotEmpty": "should not be empty",
	"validation.isPhoneNumber": "must be a valid phone number"
}`

const testLocaleAR = `{
	"errors.internal": "حدث خطأ ما، يرجى المحاولة لاحقاً",
	"auth.login.invalid": "البريد الإلكتروني أو كلمة المرور غير صحيحة",
	"validation.isPhoneNumber": "يجب أن يكون رقم هاتف صالحاً"
}`

func newTestServer(t *testing.T, production bool) *Server {
	t.Helper()

	dir := t.TempDir()
	localesDir := filepath.Join(dir, "locales")
	if err := os.MkdirAll(localesDir, 0755); err != nil {
		t.Fatalf("Failed to create locales dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(localesDir, "en.json"), []byte(testLocaleEN), 0644); err != nil {
		t.Fatalf("Failed to write en.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(localesDir, "ar.json"), []byte(testLocaleAR), 0644); err != nil {
		t.Fatalf("Failed to write ar.json: %v", err)
	}

	env := "development"
	if production {
		env = "production"
	}
	cfg := &config.Config{
		Env:    env,
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Database: config.DatabaseConfig{
			Path: filepath.Join(dir, "test.db"),
		},
		Auth: config.AuthConfig{
			Secret:           "test-secret",
			AccessTTLMinutes: 15,
			RefreshTTLDays:   30,
		},
		CORS: config.CORSConfig{Origins: []string{"*"}},
		Uploads: config.UploadsConfig{
			Dir:       filepath.Join(dir, "uploads"),
			MaxSizeMB: 10,
			MIMETypes: []string{"image/png"},
		},
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	bundle := i18n.New(zerolog.Nop(), localesDir)
	var publisher events.Publisher = (*events.AMQPPublisher)(nil)

	return New(cfg, st, bundle, publisher, zerolog.Nop())
}

// doJSON performs a request against the server's router and decodes the
// envelope.
func doJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("Response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec.Code, decoded
}

// requireEnvelope asserts the five-field envelope shape.
func requireEnvelope(t *testing.T, body map[string]any) {
	t.Helper()
	for _, field := range []string{"status", "message", "lang", "timestamp", "data"} {
		if _, ok := body[field]; !ok {
			t.Fatalf("envelope missing %q: %v", field, body)
		}
	}
	if len(body) != 5 {
		t.Fatalf("envelope has %d fields, want 5: %v", len(body), body)
	}
}
