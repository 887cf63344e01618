package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ssio-project/fiware-gateway/internal/activity"
	"github.com/ssio-project/fiware-gateway/internal/auth"
	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/fiware/iotagent"
	"github.com/ssio-project/fiware-gateway/internal/fiware/keyrock"
	"github.com/ssio-project/fiware-gateway/internal/fiware/pep"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/logging"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeKeyrock serves the slice of the Keyrock API the gateway touches.
func fakeKeyrock(t *testing.T, roles []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/tokens", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(fiware.HeaderSubjectToken, "mgmt-token")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"token":{"expires_at":%q}}`, time.Now().Add(time.Hour).Format(time.RFC3339))
	})
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access-token","refresh_token":"refresh-token","expires_in":3600}`)
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"user-1","username":"alice","email":"alice@example.org"}`)
	})
	mux.HandleFunc("GET /v1/applications/app-1/users/user-1/roles", func(w http.ResponseWriter, _ *http.Request) {
		assignments := make([]map[string]string, 0, len(roles))
		for _, role := range roles {
			assignments = append(assignments, map[string]string{"role_id": role})
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]any{"role_user_assignments": assignments})
	})
	mux.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(fiware.HeaderAuthToken) != "mgmt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"users":[{"id":"user-1"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	api     *httptest.Server
	store   *session.Store
	log     *activity.Log
	pepSrv  *httptest.Server
	iotSrv  *httptest.Server
	authSvc *auth.Service
}

// newHarness wires a full gateway against fake upstreams.
func newHarness(t *testing.T, roles []string) *harness {
	t.Helper()

	keyrockSrv := fakeKeyrock(t, roles)

	pepSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/entities" && r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"id":"Sensor1","type":"Sensor"}]`)
		case strings.HasPrefix(r.URL.Path, "/v2/entities/missing"):
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"NotFound","description":"no such entity"}`)
		case r.URL.Path == "/v2/op/update":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(pepSrv.Close)

	iotSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/iot/d") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count":0,"devices":[]}`)
	}))
	t.Cleanup(iotSrv.Close)

	kc := keyrock.New(config.KeyrockConfig{
		URL:          keyrockSrv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		AppID:        "app-1",
	}, time.Second)

	store := session.NewStore()
	sessions := session.NewManager(store, kc)
	authSvc := auth.NewService(kc, store, sessions, testSecret, time.Hour)

	tenancy := config.FIWAREConfig{Service: "openiot", ServicePath: "/"}
	activityLog := activity.NewLog()

	srv, err := New(Deps{
		Config:   config.GatewayConfig{},
		WS:       config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Logger:   logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test"),
		Auth:     authSvc,
		Store:    store,
		Sessions: sessions,
		Keyrock:  kc,
		PEP:      pep.New(config.PEPProxyConfig{URL: pepSrv.URL}, tenancy, time.Second),
		IoT:      iotagent.New(config.IoTAgentConfig{URL: iotSrv.URL, SouthURL: iotSrv.URL}, tenancy, time.Second),
		Activity: activityLog,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	api := httptest.NewServer(srv.buildRouter())
	t.Cleanup(api.Close)

	return &harness{api: api, store: store, log: activityLog, pepSrv: pepSrv, iotSrv: iotSrv, authSvc: authSvc}
}

// login signs in and returns the bearer token.
func (h *harness) login(t *testing.T) string {
	t.Helper()

	resp, err := http.Post(h.api.URL+"/auth/login", "application/json",
		strings.NewReader(`{"email":"alice@example.org","password":"pw"}`))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return body.AccessToken
}

func (h *harness) request(t *testing.T, method, path, token string, body []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, h.api.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newHarness(t, []string{"user"})

	resp, err := http.Get(h.api.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLogin_ReturnsTokenAndIdentity(t *testing.T) {
	h := newHarness(t, []string{"provider"})
	token := h.login(t)

	resp := h.request(t, http.MethodGet, "/auth/me", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}

	var me struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decoding me: %v", err)
	}
	if me.Username != "alice" || len(me.Roles) != 1 || me.Roles[0] != "provider" {
		t.Errorf("me = %+v, want alice/provider", me)
	}
}

func TestLogin_UserObjectUsesID(t *testing.T) {
	h := newHarness(t, []string{"provider"})

	resp, err := http.Post(h.api.URL+"/auth/login", "application/json",
		strings.NewReader(`{"email":"alice@example.org","password":"pw"}`))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string         `json:"accessToken"`
		User        map[string]any `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if body.User["id"] != "user-1" {
		t.Errorf("user.id = %v, want user-1", body.User["id"])
	}
	if _, ok := body.User["userId"]; ok {
		t.Error("user object carries userId, want id")
	}

	meResp := h.request(t, http.MethodGet, "/auth/me", body.AccessToken, nil)
	defer meResp.Body.Close()

	var me map[string]any
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("decoding me: %v", err)
	}
	if me["id"] != "user-1" {
		t.Errorf("me.id = %v, want user-1", me["id"])
	}
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	h := newHarness(t, []string{"user"})

	resp := h.request(t, http.MethodGet, "/users", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without token", resp.StatusCode)
	}
}

func TestUsers_ForwardsWithManagementToken(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	resp := h.request(t, http.MethodGet, "/users", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUsers_ExpiredManagementAnswers401(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	// Lapse the management credential; it has no refresh grant.
	expired := session.Credential{Token: "mgmt-token", ExpiresAt: time.Now().Add(-time.Minute)}
	h.store.Update("user-1", session.Patch{Management: &expired})

	resp := h.request(t, http.MethodGet, "/users", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for unrenewable credential", resp.StatusCode)
	}
}

func TestOrion_QueryEntities(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	resp := h.request(t, http.MethodGet, "/orion/entities", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var entities []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		t.Fatalf("decoding entities: %v", err)
	}
	if len(entities) != 1 || entities[0]["id"] != "Sensor1" {
		t.Errorf("entities = %v, want upstream response verbatim", entities)
	}
}

func TestOrion_NotFoundBodyPassesThrough(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	resp := h.request(t, http.MethodGet, "/orion/entities/missing", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var buf bytes.Buffer
	//nolint:errcheck
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "no such entity") {
		t.Errorf("body = %q, want upstream 404 body verbatim", buf.String())
	}
}

func TestOrion_BatchUpdateIs204(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	resp := h.request(t, http.MethodPost, "/orion/op/update", token,
		[]byte(`{"actionType":"append","entities":[]}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestLogs_RequiresProviderRole(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	resp := h.request(t, http.MethodGet, "/logs", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without provider role", resp.StatusCode)
	}
}

func TestLogs_RecordsActivity(t *testing.T) {
	h := newHarness(t, []string{"provider"})
	token := h.login(t)

	h.request(t, http.MethodGet, "/auth/me", token, nil).Body.Close()

	resp := h.request(t, http.MethodGet, "/logs?limit=10", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var page activity.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decoding logs: %v", err)
	}
	if page.Total < 2 {
		t.Fatalf("Total = %d, want login and me recorded", page.Total)
	}

	var sawLogin bool
	for _, e := range page.Entries {
		if e.Message == "alice signed in" && e.Category == activity.CategoryAuthentication {
			sawLogin = true
		}
	}
	if !sawLogin {
		t.Error("login entry missing from activity log")
	}
}

func TestLogsStream_SSEFrames(t *testing.T) {
	h := newHarness(t, []string{"provider"})
	token := h.login(t)

	req, _ := http.NewRequest(http.MethodGet, h.api.URL+"/logs/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	if !strings.HasPrefix(line, ": connected") {
		t.Fatalf("greeting = %q, want : connected", line)
	}

	// A recorded entry must arrive as a data frame.
	h.log.Record(activity.Entry{Message: "probe", Category: activity.CategorySystem})

	deadline := time.After(2 * time.Second)
	got := make(chan string, 1)
	go func() {
		for {
			l, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(l, "data: ") {
				got <- l
				return
			}
		}
	}()

	select {
	case frame := <-got:
		if !strings.Contains(frame, `"message":"probe"`) {
			t.Errorf("frame = %q, want probe entry", frame)
		}
	case <-deadline:
		t.Fatal("no data frame received")
	}
}

func TestDeviceData_Ultralight(t *testing.T) {
	h := newHarness(t, []string{"user"})

	resp, err := http.Post(h.api.URL+"/iot/data/ultralight", "application/json",
		strings.NewReader(`{"apiKey":"key1","deviceId":"sensor-01","data":"t|25|h|50"}`))
	if err != nil {
		t.Fatalf("device data request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 without a gateway JWT", resp.StatusCode)
	}
}

func TestDeviceData_MissingFields(t *testing.T) {
	h := newHarness(t, []string{"user"})

	resp, err := http.Post(h.api.URL+"/iot/data/json", "application/json",
		strings.NewReader(`{"deviceId":"sensor-01"}`))
	if err != nil {
		t.Fatalf("device data request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// newBareServer builds a server with the given gateway config and no
// upstreams, for tests that exercise the server itself.
func newBareServer(t *testing.T, cfg config.GatewayConfig) *Server {
	t.Helper()

	store := session.NewStore()
	sessions := session.NewManager(store, nil)

	srv, err := New(Deps{
		Config:   cfg,
		WS:       config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Logger:   logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test"),
		Auth:     auth.NewService(nil, store, sessions, testSecret, time.Hour),
		Store:    store,
		Sessions: sessions,
		Activity: activity.NewLog(),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestServerClose_EndsRequestContexts(t *testing.T) {
	srv := newBareServer(t, config.GatewayConfig{})

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	base := srv.server.BaseContext(nil)
	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-base.Done():
	default:
		t.Error("request base context still live after Close")
	}
}

func TestLogsWebSocket_OriginAllowlist(t *testing.T) {
	srv := newBareServer(t, config.GatewayConfig{
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://dashboard.example.org"}},
	})
	api := httptest.NewServer(srv.buildRouter())
	t.Cleanup(api.Close)

	token, err := auth.MintToken(session.Identity{
		UserID:   "user-1",
		Username: "alice",
		Roles:    []string{"provider"},
	}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(api.URL, "http") + "/logs/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	header.Set("Origin", "https://evil.example.org")
	if conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		conn.Close()
		t.Fatal("handshake succeeded from disallowed origin")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("handshake response = %v, want 403", resp)
	}

	header.Set("Origin", "https://dashboard.example.org")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("handshake from allowed origin: %v", err)
	}
	conn.Close()
}

func TestLogout_InvalidatesSession(t *testing.T) {
	h := newHarness(t, []string{"user"})
	token := h.login(t)

	h.request(t, http.MethodPost, "/auth/logout", token, nil).Body.Close()

	// The JWT is still signature-valid, but the session behind it is gone.
	resp := h.request(t, http.MethodGet, "/auth/me", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", resp.StatusCode)
	}
}
