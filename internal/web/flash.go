package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const flashCookie = "kudos_flash"

// Flash is a one-shot status message shown at the top of the next page.
type Flash struct {
	Kind string `json:"k"` // "success" or "error"
	Text string `json:"t"`
}

func (f Flash) IsError() bool { return f.Kind == "error" }

// setFlash stores a flash for the next request. The cookie expires after ttl
// whether or not it was shown.
func setFlash(w http.ResponseWriter, ttl time.Duration, kind, text string) {
	raw, err := json.Marshal(Flash{Kind: kind, Text: text})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   max(int(ttl/time.Second), 1),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash, if any.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	ck, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Text == "" {
		return nil
	}
	return &f
}

func (s *Server) flashSuccess(w http.ResponseWriter, text string) {
	setFlash(w, s.config.FlashTTL, "success", text)
}

func (s *Server) flashError(w http.ResponseWriter, text string) {
	setFlash(w, s.config.FlashTTL, "error", text)
}
