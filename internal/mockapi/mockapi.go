// Package mockapi is a stand-in biometric authority for development and
// tests. It speaks the same wire contract as the production service: bearer
// tokens, {"detail": ...} error bodies, and the /auth, /data and /reports
// route families.
package mockapi

import (
	_ "embed"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Server holds the in-memory accounts, templates and audit trail.
type Server struct {
	mu     sync.RWMutex
	users  map[string]*account
	logs   []auditRecord
	nextID int

	secret   []byte
	tokenTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

type account struct {
	ID           int
	Username     string
	PasswordHash []byte
	Role         string
	Clearance    int
	Admin        bool
	Template     *faceTemplate
}

// Option configures the Server.
type Option func(*Server)

// WithTokenTTL overrides the default eight hour token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server signing tokens with secret, pre-seeded with the three
// demo accounts.
func New(secret string, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		users:    make(map[string]*account),
		nextID:   1,
		secret:   []byte(secret),
		tokenTTL: 8 * time.Hour,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	seeds := []struct {
		username, password, role string
		clearance                int
		admin                    bool
	}{
		{"ana.luiza", "senha123", "public", 1, true},
		{"diretor.silva", "diretor2024", "director", 2, false},
		{"ministro.ambiente", "ministro2024", "minister", 3, false},
	}
	for _, u := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		if err != nil {
			panic("mockapi: seeding accounts: " + err.Error())
		}
		s.users[u.username] = &account{
			ID:           s.nextID,
			Username:     u.username,
			PasswordHash: hash,
			Role:         u.role,
			Clearance:    u.clearance,
			Admin:        u.admin,
		}
		s.nextID++
	}
}

// Router returns a chi.Router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))
	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Post("/auth/login", s.Login)
	r.Post("/auth/check-biometric", s.CheckBiometric)
	r.Post("/auth/enroll", s.Enroll)
	r.Post("/auth/enroll-upload", s.EnrollUpload)
	r.Post("/auth/verify", s.Verify)
	r.Post("/auth/verify-upload", s.VerifyUpload)
	r.Post("/auth/verify-camera", s.VerifyCamera)
	r.Post("/auth/create-user", s.CreateUser)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		r.Get("/data/level/{level}", s.LevelData)
		r.Get("/reports/audit", s.AuditReport)
		r.With(s.RequireAdmin).Get("/auth/users", s.ListUsers)
		r.With(s.RequireAdmin).Delete("/auth/users/{username}", s.DeleteUser)
		r.With(s.RequireAdmin).Post("/auth/users/{username}/reset-password", s.ResetPassword)
	})

	return r
}

func (s *Server) findUser(username string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	return u, ok
}
