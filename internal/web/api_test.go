package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/towerhq/boardroom/internal/advisor"
	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/config"
	"github.com/towerhq/boardroom/internal/registry"
	"github.com/towerhq/boardroom/internal/store"
	"github.com/towerhq/boardroom/internal/vault"
)

type stubClient struct {
	output string
	err    error
}

func (c stubClient) Complete(_ context.Context, _, _ string) (string, error) {
	return c.output, c.err
}

func newTestServer(t *testing.T, client stubClient, webCfg config.WebConfig) (*Server, *httptest.Server, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	panel := advisor.DefaultPanel()
	reg := registry.New(panel, filepath.Join(dir, "advisors"))
	if err := reg.Sync(); err != nil {
		t.Fatalf("registry sync: %v", err)
	}

	engine := board.NewEngine(panel, reg, client, st, nil, 0)
	srv := NewServer(st, nil, engine, reg, vault.New("test-passphrase"), nil, webCfg, "test")
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)

	return srv, ts, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateRun(t *testing.T) {
	_, ts, st := newTestServer(t, stubClient{output: "**Assessment: GREEN**"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/runs", map[string]string{"idea": "solar-powered scooters"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	run := decodeBody[board.Run](t, resp)
	if len(run.Results) != 4 {
		t.Fatalf("results = %d, want 4", len(run.Results))
	}
	if run.OverallVerdict != advisor.OverallGo {
		t.Errorf("overall = %q", run.OverallVerdict)
	}

	// Completed runs land in the store.
	saved, err := st.GetRun(run.ID)
	if err != nil || saved == nil {
		t.Fatalf("run not persisted: %v", err)
	}
}

func TestCreateRunEmptyIdea(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/runs", map[string]string{"idea": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["error"] == "" {
		t.Error("expected error message")
	}
}

func TestRunLifecycle(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "**Assessment: YELLOW**"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/runs", map[string]string{"idea": "an app"})
	run := decodeBody[board.Run](t, resp)

	resp, err := http.Get(ts.URL + "/api/runs/" + run.ID)
	if err != nil {
		t.Fatalf("GET run: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/runs/" + run.ID + "/brief")
	if err != nil {
		t.Fatalf("GET brief: %v", err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), "Strategy Brief") {
		t.Errorf("brief missing header:\n%s", buf.String())
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/runs/"+run.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE run: %v", err)
	}
	resp.Body.Close()

	resp, _ = http.Get(ts.URL + "/api/runs/" + run.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted run status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListAdvisors(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp, err := http.Get(ts.URL + "/api/advisors")
	if err != nil {
		t.Fatalf("GET advisors: %v", err)
	}
	advisors := decodeBody[[]map[string]string](t, resp)
	if len(advisors) != 4 {
		t.Fatalf("advisors = %d, want 4", len(advisors))
	}
	if advisors[0]["id"] != "ada" || advisors[0]["title"] != "CTO" {
		t.Errorf("first advisor = %v", advisors[0])
	}
}

func TestPersonaRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/advisors/tony/persona",
		strings.NewReader(`{"content":"You are Tony. Hype only."}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT persona: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/advisors/tony/persona")
	if err != nil {
		t.Fatalf("GET persona: %v", err)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["content"] != "You are Tony. Hype only." {
		t.Errorf("persona = %q", body["content"])
	}

	resp, _ = http.Get(ts.URL + "/api/advisors/nobody/persona")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown advisor status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReviewLifecycle(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/reviews", map[string]string{
		"name":     "weekly",
		"idea":     "ghost kitchen network",
		"schedule": "0 9 * * 1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	review := decodeBody[map[string]any](t, resp)
	id, _ := review["id"].(string)
	if id == "" {
		t.Fatal("review has no id")
	}
	if review["schedule_display"] != "cron: 0 9 * * 1" {
		t.Errorf("schedule_display = %v", review["schedule_display"])
	}

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/reviews/"+id,
		strings.NewReader(`{"status":"paused"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT review: %v", err)
	}
	resp.Body.Close()

	resp, _ = http.Get(ts.URL + "/api/reviews/" + id)
	got := decodeBody[map[string]any](t, resp)
	if got["status"] != "paused" {
		t.Errorf("status = %v, want paused", got["status"])
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/reviews/"+id, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()

	resp, _ = http.Get(ts.URL + "/api/reviews/" + id)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted review status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateReviewRejectsBadSchedule(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/reviews", map[string]string{
		"idea":     "anything",
		"schedule": "not a schedule",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSecretsNeverExposeValue(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/secrets", map[string]string{
		"name":        "openai-key",
		"description": "completion API key",
		"value":       "sk-very-secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/secrets/openai-key")
	if err != nil {
		t.Fatalf("GET secret: %v", err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if strings.Contains(buf.String(), "sk-very-secret") {
		t.Error("secret value leaked over HTTP")
	}

	resp, _ = http.Get(ts.URL + "/api/secrets")
	secrets := decodeBody[[]store.Secret](t, resp)
	if len(secrets) != 1 || secrets[0].Name != "openai-key" {
		t.Errorf("secrets = %+v", secrets)
	}
}

func TestStatus(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	status := decodeBody[map[string]any](t, resp)
	if status["version"] != "test" {
		t.Errorf("version = %v", status["version"])
	}
	if status["advisors"] != float64(4) {
		t.Errorf("advisors = %v", status["advisors"])
	}
	if s, _ := status["store"].(string); s == "" {
		t.Error("expected store path in status")
	}
}

func TestAuthRequired(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{Auth: "hunter2"})

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET runs: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	// Basic auth with the configured password passes.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/runs", nil)
	req.SetBasicAuth("", "hunter2")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET runs with auth: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Login issues a session cookie that works on its own.
	resp = postJSON(t, ts.URL+"/api/login", map[string]string{"password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	cookies := resp.Cookies()
	resp.Body.Close()
	if len(cookies) == 0 {
		t.Fatal("login did not set a cookie")
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/runs", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET runs with cookie: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cookie-auth status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestForgeNotConfigured(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/forge/jobs", map[string]string{"brief": "# Brief"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0.5, "30m"},
		{3.25, "3h 15m"},
		{49, "2d 1h 0m"},
	}
	for _, tc := range cases {
		d := time.Duration(tc.hours * float64(time.Hour))
		if got := formatUptime(d); got != tc.want {
			t.Errorf("formatUptime(%v) = %q, want %q", d, got, tc.want)
		}
	}
}
