package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/auth"
	"musiccatalog/m/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index.html",
	"about.html",
	"history.html",
	"album.html",
	"login.html",
	"album_form.html",
	"not_found.html",
	"error.html",
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Catalog  *catalog.Service
	Auth     *auth.Service
	Sessions auth.SessionManager
	Guard    *auth.Middleware
	DB       Pinger
	Logger   *slog.Logger
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	catalog  *catalog.Service
	auth     *auth.Service
	sessions auth.SessionManager
	guard    *auth.Middleware
	db       Pinger
	logger   *slog.Logger
	pages    map[string]*template.Template
}

// New constructs a Handler and parses the page templates.
func New(deps Deps) (*Handler, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Handler{
		catalog:  deps.Catalog,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		guard:    deps.Guard,
		db:       deps.DB,
		logger:   deps.Logger,
		pages:    pages,
	}, nil
}

// Router wires up the site.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.guard.LoadUser)

	r.NotFound(h.notFound)

	r.Get("/health", h.health)

	r.Get("/", h.index)
	r.Get("/about", h.static("about.html"))
	r.Get("/history", h.static("history.html"))
	r.Get("/album/{id}", h.viewAlbum)
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.guard.RequireUser)

		pr.Get("/logout", h.logout)
		pr.Route("/admin", func(r chi.Router) {
			r.Get("/add", h.addForm)
			r.Post("/add", h.addAlbum)
			r.Get("/edit/{id}", h.editForm)
			r.Post("/edit/{id}", h.editAlbum)
			r.Get("/delete/{id}", h.deleteAlbum)
		})
	})

	return r
}

// view is the data handed to every template.
type view struct {
	CurrentUser *domain.User
	Albums      []domain.Album
	Album       domain.Album
	Tracks      []string
	Form        catalog.Fields
	Action      string
	FormAction  string
	Username    string
	Error       string
}

func newView(r *http.Request) view {
	var v view
	if u, ok := auth.UserFromContext(r.Context()); ok {
		v.CurrentUser = &u
	}
	return v
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, body := http.StatusOK, map[string]string{"status": "ok"}
	if err := h.db.PingContext(ctx); err != nil {
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Catalog pages

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.ListAlbums(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := newView(r)
	v.Albums = albums
	h.render(w, http.StatusOK, "index.html", v)
}

func (h *Handler) static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, http.StatusOK, name, newView(r))
	}
}

func (h *Handler) viewAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := albumID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	detail, err := h.catalog.GetAlbum(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := newView(r)
	v.Album = detail.Album
	v.Tracks = detail.Tracks
	h.render(w, http.StatusOK, "album.html", v)
}

// Authentication

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", newView(r))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, err)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	user, err := h.auth.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		v := newView(r)
		v.Username = username
		v.Error = auth.ErrInvalidCredentials.Error()
		h.render(w, http.StatusOK, "login.html", v)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Issue(r.Context(), w, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), w, r); err != nil {
		h.logger.Error("revoke session", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Admin handlers

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Add", "/admin/add", catalog.Fields{}, "")
}

func (h *Handler) addAlbum(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, err)
		return
	}
	fields := catalog.FieldsFromForm(r.PostForm)

	id, err := h.catalog.CreateAlbum(r.Context(), fields)
	if errors.Is(err, catalog.ErrInvalidYear) {
		h.renderForm(w, r, http.StatusBadRequest, "Add", "/admin/add", fields, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("album created", "album_id", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, ok := albumID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	detail, err := h.catalog.GetAlbum(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "Edit", editPath(id), catalog.FieldsFromAlbum(detail.Album), "")
}

func (h *Handler) editAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := albumID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, err)
		return
	}
	fields := catalog.FieldsFromForm(r.PostForm)

	err := h.catalog.UpdateAlbum(r.Context(), id, fields)
	if errors.Is(err, catalog.ErrInvalidYear) {
		h.renderForm(w, r, http.StatusBadRequest, "Edit", editPath(id), fields, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("album updated", "album_id", id)
	http.Redirect(w, r, "/album/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) deleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := albumID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.catalog.DeleteAlbum(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("album deleted", "album_id", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Helpers

func albumID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func editPath(id int64) string {
	return "/admin/edit/" + strconv.FormatInt(id, 10)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, action, formAction string, fields catalog.Fields, msg string) {
	v := newView(r)
	v.Action = action
	v.FormAction = formAction
	v.Form = fields
	v.Error = msg
	h.render(w, status, "album_form.html", v)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "not_found.html", newView(r))
}

// fail maps a service error onto a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.notFound(w, r)
	case errors.Is(err, catalog.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err)
		h.render(w, http.StatusInternalServerError, "error.html", newView(r))
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, v view) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "base", v); err != nil {
		h.logger.Error("render template", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
