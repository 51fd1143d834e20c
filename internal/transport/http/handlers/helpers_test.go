package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"paydesk/internal/app/server"
	"paydesk/internal/platform/config"
)

const (
	adminUsername = "admin"
	adminPassword = "ChangeMe123!"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details struct {
		Fields []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"fields"`
	} `json:"details"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		DataPath:           filepath.Join(dir, "employees.json"),
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		PayslipDir:         filepath.Join(dir, "payslips"),
		SeedAdminUsername:  adminUsername,
		SeedAdminPassword:  adminPassword,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func startApp(t *testing.T, cfg config.Config) (*httptest.Server, *http.Client) {
	t.Helper()
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func do(t *testing.T, client *http.Client, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, raw
}

func doJSONStatus(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	resp, raw := do(t, client, method, url, token, body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func login(t *testing.T, client *http.Client, baseURL, username, password string) string {
	t.Helper()
	env := doJSONStatus(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, http.StatusOK)
	var session struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &session)
	if session.Token == "" {
		t.Fatal("expected token in login response")
	}
	return session.Token
}

func setRole(t *testing.T, client *http.Client, baseURL, token, name string, rate float64) {
	t.Helper()
	doJSONStatus(t, client, http.MethodPut, baseURL+"/api/v1/roles/"+name, token, map[string]any{"hourly_rate": rate}, http.StatusOK)
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token string, payload map[string]any) int {
	t.Helper()
	env := doJSONStatus(t, client, http.MethodPost, baseURL+"/api/v1/employees", token, payload, http.StatusCreated)
	var rec struct {
		Code         int    `json:"code"`
		PasswordHash string `json:"password_hash"`
	}
	decodeData(t, env, &rec)
	if rec.Code < 1000 || rec.Code > 9999 {
		t.Fatalf("expected four digit employee code, got %d", rec.Code)
	}
	if rec.PasswordHash != "" {
		t.Fatal("password hash leaked in response")
	}
	return rec.Code
}

func assertValidationErrorField(t *testing.T, env envelope, field string) {
	t.Helper()
	if env.Error == nil || env.Error.Code != "invalid_input" {
		t.Fatalf("expected invalid_input, got %+v", env.Error)
	}
	for _, f := range env.Error.Details.Fields {
		if f.Field == field {
			return
		}
	}
	t.Fatalf("expected validation field %q in %+v", field, env.Error.Details.Fields)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
