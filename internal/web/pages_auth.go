package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/apexkudos/kudos/internal/apiclient"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login", view{Title: "Login"})
}

// handleLogin exchanges the form credentials for a token and stores it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	store := sessionFrom(r)
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	done, ok := s.inflight.begin(store.ID(), "login")
	if !ok {
		s.flashError(w, "That action is already in progress.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	defer done()

	tok, err := s.client(r).Login(r.Context(), email, password)
	if err != nil {
		s.logger.Info("login failed", slog.String("error", err.Error()))
		s.flashError(w, "Login failed. Check your email and password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	store.Set(tok.AccessToken)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "register", view{Title: "Register"})
}

// handleRegister creates the account and logs straight in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	store := sessionFrom(r)
	req := apiclient.RegisterRequest{
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
	}

	done, ok := s.inflight.begin(store.ID(), "register")
	if !ok {
		s.flashError(w, "That action is already in progress.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	defer done()

	api := s.client(r)
	if _, err := api.Register(r.Context(), req); err != nil {
		s.logger.Info("registration failed", slog.String("error", err.Error()))
		s.flashError(w, "Registration failed. Please check your details and try again.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	tok, err := api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login after registration failed", slog.String("error", err.Error()))
		s.flashSuccess(w, "Account created. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	store.Set(tok.AccessToken)
	s.flashSuccess(w, "Welcome to Apex Kudos!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Clear()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
