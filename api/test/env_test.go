package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alicebob/miniredis/v2"
	"github.com/eleganza/storefront/api"
	"github.com/eleganza/storefront/api/background"
	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/config"
	"github.com/eleganza/storefront/core/payment"
	"github.com/eleganza/storefront/core/token"
	"github.com/eleganza/storefront/core/user"
	"github.com/eleganza/storefront/database"
	"github.com/eleganza/storefront/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var client *http.Client

func init() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	client = &http.Client{Jar: jar}
}

// TestEnv is a fully wired server backed by a containerized postgres, an
// in-process redis and a fake payment provider. One regular user and one
// admin are seeded.
type TestEnv struct {
	DB            *sqlx.DB
	Server        *httptest.Server
	URL           string
	UserID        string
	UserEmail     string
	UserPass      string
	AdminEmail    string
	AdminPass     string
	WebhookSecret string
	Mail          *mailRecorder
	Provider      *mockCashfree
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	db, err := startDB(t, name)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	provider := &mockCashfree{}
	providerSrv := httptest.NewServer(provider.handle())
	t.Cleanup(providerSrv.Close)

	const secret = "test-webhook-secret"

	gw := payment.NewCashfree(config.Cashfree{
		AppID:     "test-app",
		Secret:    "test-secret",
		URL:       providerSrv.URL,
		ReturnURL: "http://localhost/payments/return",
		Timeout:   5 * time.Second,
	})

	mail := &mailRecorder{}
	bg := background.New(log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bg.Shutdown(ctx)
	})

	h := api.APIMux(api.APIConfig{
		Log:           log,
		DB:            db,
		Session:       scs.New(),
		Gateway:       gw,
		WebhookSecret: secret,
		Mailer:        mail,
		TokenStore:    token.NewRedisStore(rdb),
		TokenTimeout:  time.Minute,
		Background:    bg,
		AuthLimiter:   rate.NewLimiter(1000, 100, rate.Every(time.Microsecond)),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	env := &TestEnv{
		DB:            db,
		Server:        srv,
		URL:           srv.URL,
		UserEmail:     "jane@test.com",
		UserPass:      "janepass123",
		AdminEmail:    "admin@test.com",
		AdminPass:     "adminpass123",
		WebhookSecret: secret,
		Mail:          mail,
		Provider:      provider,
	}

	usr, err := env.Signup("Jane Doe", env.UserEmail, env.UserPass)
	if err != nil {
		return nil, err
	}
	env.UserID = usr.ID

	if _, err := env.Signup("Site Admin", env.AdminEmail, env.AdminPass); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`UPDATE users SET role = 'ADMIN' WHERE email = $1`, env.AdminEmail); err != nil {
		return nil, fmt.Errorf("promoting admin: %w", err)
	}

	return env, nil
}

func (e *TestEnv) Client() *http.Client {
	return client
}

// Signup registers a user through the public endpoint.
func (e *TestEnv) Signup(name, email, pass string) (user.User, error) {
	body := map[string]string{
		"name":            name,
		"email":           email,
		"password":        pass,
		"passwordConfirm": pass,
	}

	var usr user.User
	w, err := e.Request(http.MethodPost, "/auth/signup", body, &usr)
	if err != nil {
		return user.User{}, err
	}
	if w.StatusCode != http.StatusCreated {
		return user.User{}, fmt.Errorf("signup for %s: status code %s", email, w.Status)
	}
	return usr, nil
}

// Request sends a JSON request to the test server and decodes the response
// into out when out is non-nil and the answer has a body.
func (e *TestEnv) Request(method, path string, body any, out any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer w.Body.Close()

	raw, err := io.ReadAll(w.Body)
	if err != nil {
		return nil, err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decoding %s %s response %q: %w", method, path, raw, err)
		}
	}

	return w, nil
}

func Login(srv *httptest.Server, email, pass string) error {
	creds := map[string]string{"email": email, "password": pass}
	b, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	w, err := client.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func Logout(srv *httptest.Server) error {
	w, err := client.Post(srv.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

// mockCashfree fakes the provider's order API. It answers every session
// request with a deterministic session id derived from our order id and
// records what it was asked for.
type mockCashfree struct {
	mu       sync.Mutex
	fail     bool
	requests []providerOrder
}

type providerOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"order_amount"`
	Currency string  `json:"order_currency"`
	Customer struct {
		ID    string `json:"customer_id"`
		Email string `json:"customer_email"`
		Phone string `json:"customer_phone"`
	} `json:"customer_details"`
}

func (m *mockCashfree) Fail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *mockCashfree) Last() (providerOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return providerOrder{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func (m *mockCashfree) handle() http.Handler {
	orders := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-client-id") == "" || r.Header.Get("x-client-secret") == "" {
			web.Respond(context.Background(), w, nil, http.StatusUnauthorized)
			return
		}

		var ord providerOrder
		if err := json.NewDecoder(r.Body).Decode(&ord); err != nil {
			web.Respond(context.Background(), w, nil, http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		fail := m.fail
		if !fail {
			m.requests = append(m.requests, ord)
		}
		m.mu.Unlock()

		if fail {
			web.Respond(context.Background(), w, map[string]string{"message": "provider unavailable"}, http.StatusServiceUnavailable)
			return
		}

		resp := map[string]any{
			"cf_order_id":        "cf_" + ord.OrderID,
			"order_id":           ord.OrderID,
			"payment_session_id": "session_" + ord.OrderID,
		}
		web.Respond(context.Background(), w, resp, http.StatusOK)
	})

	r := mux.NewRouter()
	r.Handle("/pg/orders", orders).Methods("POST")
	return r
}

// mailRecorder captures recovery codes instead of sending mail. Codes are
// delivered off the request path, so readers poll with WaitCode.
type mailRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *mailRecorder) SendRecoveryCode(to string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[to] = code
	return nil
}

func (m *mailRecorder) WaitCode(to string, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		code, ok := m.codes[to]
		m.mu.Unlock()
		if ok {
			return code, true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return "", false
}
