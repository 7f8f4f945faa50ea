// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the landlord dashboard, lead lists and uploaded images
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/rentdesk/blob"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/session"
	"github.com/harperreed/rentdesk/viz"
)

//go:embed templates/*
var templatesFS embed.FS

// BlobReader serves stored images by path.
type BlobReader interface {
	Get(ctx context.Context, path string) (*blob.Object, error)
}

type Deps struct {
	Identity identity.Service
	Profiles *session.ProfileLoader
	Listings *listings.Repository
	Leads    *leads.Loader
	Blobs    BlobReader
	Logger   *log.Logger
}

// SessionCookie carries the browser's session token.
const SessionCookie = "rentdesk_session"

type Server struct {
	deps      Deps
	templates *template.Template
	generator *viz.GraphGenerator
	mux       *http.ServeMux

	mu       sync.Mutex
	sessions map[string]string // token -> identity id
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 15:04")
		},
		"vacancy": func(vacant bool) string {
			if vacant {
				return "Vacant"
			}
			return "Occupied"
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		deps:      deps,
		templates: tmpl,
		generator: viz.NewGraphGenerator(),
		mux:       http.NewServeMux(),
		sessions:  make(map[string]string),
	}

	// Routes
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /signin", s.handleSigninForm)
	s.mux.HandleFunc("POST /signin", s.sameOrigin(s.handleSignin))
	s.mux.HandleFunc("POST /signout", s.sameOrigin(s.handleSignout))
	s.mux.HandleFunc("GET /listings/{id}/leads", s.handleLeads)
	s.mux.HandleFunc("POST /listings/{id}/toggle", s.sameOrigin(s.handleToggle))
	s.mux.HandleFunc("POST /listings/{id}/delete", s.sameOrigin(s.handleDelete))
	s.mux.HandleFunc("GET /graph", s.handleGraph)
	s.mux.HandleFunc("GET /blobs/{path...}", s.handleBlob)

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr (host:port).
func (s *Server) Start(addr string) error {
	s.deps.Logger.Info("starting web server", "url", "http://"+addr)
	return http.ListenAndServe(addr, s.mux)
}

// sameOrigin rejects cross-site form posts. Requests carrying neither
// Origin nor Referer are let through.
func (s *Server) sameOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.Header.Get("Origin")
		if source == "" {
			source = r.Header.Get("Referer")
		}
		if source != "" {
			u, err := url.Parse(source)
			if err != nil || u.Host != r.Host {
				s.deps.Logger.Warn("rejected cross-origin request", "path", r.URL.Path, "origin", source)
				http.Error(w, "cross-origin request rejected", http.StatusForbidden)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) startSession(w http.ResponseWriter, userID string) {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = userID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[c.Value]
	return id, ok
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data map[string]interface{}) {
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		s.deps.Logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// tenant resolves the identity behind the request's session cookie and
// redirects to /signin when there is none. A session whose identity is no
// longer the signed-in one is dropped.
func (s *Server) tenant(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	id, ok := s.sessionUser(r)
	if !ok {
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return nil, false
	}

	user, err := s.deps.Identity.Current(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if user == nil || user.ID != id {
		s.endSession(w, r)
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.tenant(w, r)
	if !ok {
		return
	}

	profile, err := s.deps.Profiles.Load(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	all, err := s.deps.Listings.LoadAll(r.Context(), user.ID)
	if err != nil && !errors.Is(err, listings.ErrProfileNotFound) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	business := user.Email
	if profile != nil {
		business = profile.BusinessName
	}

	data := map[string]interface{}{
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
		"User":            user,
		"Business":        business,
		"Profile":         profile,
		"Listings":        all,
		"Stats":           s.deps.Listings.Stats(),
		"Dashboard":       viz.GenerateDashboardStats(all, nil, time.Now()),
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleSigninForm(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Sign in",
		"ContentTemplate": "signin-content",
		"Error":           "",
		"Email":           "",
	})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.deps.Identity.SignIn(r.Context(), r.PostFormValue("email"), r.PostFormValue("secret"))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderTemplate(w, "layout.html", map[string]interface{}{
			"Title":           "Sign in",
			"ContentTemplate": "signin-content",
			"Error":           err.Error(),
			"Email":           r.PostFormValue("email"),
		})
		return
	}
	s.startSession(w, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.tenant(w, r); !ok {
		return
	}
	if err := s.deps.Identity.SignOut(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.endSession(w, r)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	user, ok := s.tenant(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	listing, found := s.deps.Listings.Get(id)
	if !found {
		if _, err := s.deps.Listings.LoadAll(r.Context(), user.ID); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if listing, found = s.deps.Listings.Get(id); !found {
			http.NotFound(w, r)
			return
		}
	}

	attempts, err := s.deps.Leads.Load(r.Context(), user.ID, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Leads",
		"ContentTemplate": "leads-content",
		"Listing":         listing,
		"Leads":           attempts,
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	user, ok := s.tenant(w, r)
	if !ok {
		return
	}

	if _, err := s.deps.Listings.ToggleVacancy(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := s.tenant(w, r)
	if !ok {
		return
	}

	if err := s.deps.Listings.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	user, ok := s.tenant(w, r)
	if !ok {
		return
	}

	all, err := s.deps.Listings.LoadAll(r.Context(), user.ID)
	if err != nil && !errors.Is(err, listings.ErrProfileNotFound) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	dot, err := s.generator.GeneratePortfolioGraph(user.Email, all)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	obj, err := s.deps.Blobs.Get(r.Context(), r.PathValue("path"))
	if errors.Is(err, blob.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(obj.Data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var remote *models.RemoteError
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &remote):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
