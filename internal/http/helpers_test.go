package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"jamde/internal/config"
	"jamde/internal/http/handlers"
	applog "jamde/internal/log"
	"jamde/internal/payments"
	"jamde/internal/repos"
	"jamde/internal/services"
)

type fakeProvider struct {
	name string
	mu   sync.Mutex
	got  []payments.CheckoutRequest
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) InitiateCheckout(_ context.Context, req payments.CheckoutRequest) (payments.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	if f.err != nil {
		return payments.Session{}, f.err
	}
	return payments.Session{ID: "cs_test_" + req.OrderID, URL: "https://pay.example/" + req.OrderID}, nil
}

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	users *repos.UserRepo
	deps  *handlers.Deps
	card  *fakeProvider
	mm    *fakeProvider
}

// newTestApp wires the real handlers over an in-memory database. Route throttles are off
// unless an option installs them; opts run before the routes are mounted.
func newTestApp(t *testing.T, opts ...func(*testApp)) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ta := &testApp{
		db:    db,
		users: repos.NewUserRepo(db),
		card:  &fakeProvider{name: "stripe"},
		mm:    &fakeProvider{name: "flutterwave"},
	}
	cfg := config.Config{DBDSN: ":memory:", TaxRate: 0.10, ShippingFlat: 10, LowStockThreshold: 10}
	auth := &services.AuthService{Users: ta.users}
	ta.deps = handlers.NewDeps(db, cfg, auth, payments.NewRegistry("stripe", ta.card, ta.mm), nil)
	ta.deps.Limits = handlers.Limits{}

	engine := html.New("../../web/templates", ".html")
	ta.app = fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	ta.app.Server().MaxRequestBodySize = 1 << 20
	ta.app.Use(requestid.New())
	for _, o := range opts {
		o(ta)
	}
	ta.deps.Mount(ta.app)
	ta.app.Use(handlers.NotFound)
	return ta
}

// session binds a fresh session id to userID and returns its cookie.
func (ta *testApp) session(t *testing.T, sid, userID string) *http.Cookie {
	t.Helper()
	require.NoError(t, ta.users.BindSession(context.Background(), sid, userID))
	return &http.Cookie{Name: "sid", Value: sid}
}

func newRequest(method, path string, body any, cookies ...*http.Cookie) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// call runs one request and decodes a JSON object body when there is one.
func call(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

type logEntry struct {
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
	UserID string         `json:"user_id"`
	Error  string         `json:"error"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	defer restore()

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(line), &e) == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func countOrders(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	n, _, err := repos.NewOrderRepo(db).Count(context.Background())
	require.NoError(t, err)
	return n
}

func guestShipping() map[string]any {
	return map[string]any{"email": "guest@example.com", "fullName": "Guest Buyer", "city": "Accra", "country": "GH"}
}
