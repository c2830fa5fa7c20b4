package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/apperror"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageSet holds one template per page, each composed with base.html.
//
// TEMPLATE COMPOSITION:
// base.html defines the layout and calls {{template "content" .}}. Every page
// file defines its own "content", so each page is parsed into its own clone
// of base to keep the definitions apart.
type pageSet struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006")
	},
}

func parsePages() (*pageSet, error) {
	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	set := &pageSet{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "base" {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		set.pages[name] = t
	}
	return set, nil
}

// view is what every template receives.
type view struct {
	Title         string
	Page          string // nav highlight
	Authenticated bool
	Flash         *Flash
	LoadFailed    bool
	Data          any
}

// render executes a page into a buffer first so a template error never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, v view) {
	t, ok := s.pages.pages[page]
	if !ok {
		s.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	v.Page = page
	v.Authenticated = sessionFrom(r).IsAuthenticated()
	v.Flash = popFlash(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", v); err != nil {
		s.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// loader fetches a page's data through the session-bound API client.
type loader func(ctx context.Context, api *apiclient.Client) (any, error)

// loadPage runs one page load: take a generation, fetch, then render the
// result unless a newer load of the same page started meanwhile or the
// browser went away. A rejected token ends the session. Any other failure
// renders the page's load-failed block.
func (s *Server) loadPage(w http.ResponseWriter, r *http.Request, page, title string, load loader) {
	store := sessionFrom(r)
	key := store.ID() + "|" + page
	gen := s.views.next(key)
	defer s.views.finish(key, gen)

	ctx := r.Context()
	data, err := load(ctx, s.client(r))

	if ctx.Err() != nil || !s.views.current(key, gen) {
		s.logger.Debug("discarding stale page load",
			slog.String("page", page),
			slog.Uint64("generation", gen),
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if errors.Is(err, apperror.ErrUnauthorized) {
		s.expire(w, r)
		return
	}

	v := view{Title: title, Data: data}
	if err != nil {
		s.logger.Warn("page load failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		v.LoadFailed = true
		v.Data = nil
	}
	s.render(w, r, page, v)
}

// action describes one mutation submitted from a form.
type action struct {
	name    string // in-flight key, e.g. "redeem"
	back    string // where to redirect afterward
	success string
	failure string
}

// mutate runs do once for the session, sets a flash with the outcome, and
// redirects back. Failures all get the action's one generic message; the
// cause goes to the log.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, a action, do func(ctx context.Context, api *apiclient.Client) error) {
	store := sessionFrom(r)

	done, ok := s.inflight.begin(store.ID(), a.name)
	if !ok {
		s.flashError(w, "That action is already in progress.")
		http.Redirect(w, r, a.back, http.StatusSeeOther)
		return
	}
	defer done()

	err := do(r.Context(), s.client(r))
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		s.expire(w, r)
		return
	case err != nil:
		s.logger.Warn("action failed",
			slog.String("action", a.name),
			slog.String("error", err.Error()),
		)
		s.flashError(w, a.failure)
	default:
		s.flashSuccess(w, a.success)
	}
	http.Redirect(w, r, a.back, http.StatusSeeOther)
}

// expire drops a token the backend no longer accepts.
func (s *Server) expire(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Clear()
	s.flashError(w, "Your session has expired. Please log in again.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
