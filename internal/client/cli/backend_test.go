package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/client/config"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/go-chi/chi/v5"
)

// fakeBackend is an in-memory CareFollow API.
type fakeBackend struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	tokens    map[string]string
	exchange  map[string]string
	next      int
	hits      map[string]int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		tokens:    map[string]string{},
		exchange:  map[string]string{},
		hits:      map[string]int{},
	}
	b.addUser(&models.User{ID: "u-staff", Name: "Dr. Ana", Email: "ana@clinic.test", Role: models.RoleStaff}, "secret")
	b.addUser(&models.User{ID: "u-pat", Name: "Pat Lee", Email: "pat@clinic.test", Role: models.RolePatient}, "secret")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.hits[r.Method+" "+r.URL.Path]++
			b.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)
		r.Get("/auth/session", b.session)
		r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
		})
		r.Get("/auth/me", b.authed("", func(w http.ResponseWriter, r *http.Request, u *models.User) {
			writeJSON(w, http.StatusOK, u)
		}))
		r.Get("/dashboard/stats", b.authed(models.RoleStaff, func(w http.ResponseWriter, r *http.Request, _ *models.User) {
			writeJSON(w, http.StatusOK, dashboardStats{
				TotalPatients: 2, TotalAppointments: 3, PendingFollowups: 1,
				RecentAppointments: []appointment{{ID: "a1", PatientName: "Pat Lee", Procedure: "Knee scope", Diagnosis: "Meniscus tear"}},
			})
		}))
		r.Get("/patient/portal", b.authed(models.RolePatient, func(w http.ResponseWriter, r *http.Request, _ *models.User) {
			writeJSON(w, http.StatusOK, portalData{
				Patient:      &patient{ID: "p1", Name: "Pat Lee"},
				Instructions: []instruction{{ID: "i1", Text: "Keep the knee elevated"}},
			})
		}))
		r.Get("/patients", b.authed(models.RoleStaff, func(w http.ResponseWriter, r *http.Request, _ *models.User) {
			writeJSON(w, http.StatusOK, []patient{{ID: "p1", Name: "Pat Lee", Email: "pat@clinic.test", Phone: "555"}})
		}))
		r.Get("/patients/{id}", b.authed(models.RoleStaff, func(w http.ResponseWriter, r *http.Request, _ *models.User) {
			if chi.URLParam(r, "id") != "p1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Patient not found"})
				return
			}
			writeJSON(w, http.StatusOK, patient{ID: "p1", Name: "Pat Lee", Email: "pat@clinic.test", Phone: "555"})
		}))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) addUser(u *models.User, password string) {
	b.users[u.Email] = u
	b.passwords[u.Email] = password
}

func (b *fakeBackend) issue(email string) models.TokenResponse {
	b.next++
	tok := fmt.Sprintf("tok-%d", b.next)
	b.tokens[tok] = email
	return models.TokenResponse{AccessToken: tok, TokenType: "bearer", User: *b.users[email]}
}

// revokeAll makes every issued token invalid, as if it expired server-side.
func (b *fakeBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = map[string]string{}
}

func (b *fakeBackend) offerExchange(sessionID, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchange[sessionID] = email
}

func (b *fakeBackend) count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&in)

	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.passwords[in.Email]; !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, b.issue(in.Email))
}

func (b *fakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	_ = json.NewDecoder(r.Body).Decode(&in)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[in.Email]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	now := time.Now().UTC()
	b.addUser(&models.User{ID: "u-new", Name: in.Name, Email: in.Email, Role: in.Role, Phone: in.Phone, CreatedAt: &now}, in.Password)
	writeJSON(w, http.StatusOK, b.issue(in.Email))
}

func (b *fakeBackend) session(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")

	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.exchange[id]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid session"})
		return
	}
	delete(b.exchange, id)
	writeJSON(w, http.StatusOK, b.issue(email))
}

func (b *fakeBackend) authed(role models.Role, next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		email, ok := b.tokens[tok]
		var u models.User
		if ok {
			u = *b.users[email]
		}
		b.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		if role != "" && u.Role != role {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Forbidden"})
			return
		}
		next(w, r, &u)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// syncBuffer is written by the callback receiver goroutine and read by tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerBaseURL:     serverURL,
		DatabasePath:      filepath.Join(t.TempDir(), "data", "session.db"),
		RequestTimeout:    5 * time.Second,
		ValidateOnStartup: true,
		CallbackAddr:      "127.0.0.1:0",
		AuthProviderURL:   "https://auth.example.test",
		LogLevel:          "error",
	}
}
