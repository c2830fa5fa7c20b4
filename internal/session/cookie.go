package session

import (
	"net/http"
	"time"

	"github.com/rs/xid"
)

const (
	DefaultTokenCookie = "kudos_token"
	DefaultIDCookie    = "kudos_sid"
)

// CookieOptions configures the cookies a Cookie store writes.
type CookieOptions struct {
	TokenName string        // defaults to DefaultTokenCookie
	IDName    string        // defaults to DefaultIDCookie
	Secure    bool          // set on HTTPS deployments
	MaxAge    time.Duration // zero means a browser-session cookie
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.TokenName == "" {
		o.TokenName = DefaultTokenCookie
	}
	if o.IDName == "" {
		o.IDName = DefaultIDCookie
	}
	return o
}

// Cookie is a per-request Store backed by an HttpOnly cookie. It is the
// server-rendered equivalent of browser local storage: the token lives in
// the browser and comes back on every request.
//
// Writes take effect for the rest of the current request as well as for the
// browser, so a handler can Set and then immediately call the API.
type Cookie struct {
	w     http.ResponseWriter
	opts  CookieOptions
	token string
	id    string
}

var _ Store = (*Cookie)(nil)

// NewCookie reads the session cookies from r. Set and Clear write to w.
func NewCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) *Cookie {
	opts = opts.withDefaults()
	c := &Cookie{w: w, opts: opts}
	if ck, err := r.Cookie(opts.TokenName); err == nil {
		c.token = ck.Value
	}
	if ck, err := r.Cookie(opts.IDName); err == nil {
		c.id = ck.Value
	}
	return c
}

func (c *Cookie) Set(token string) {
	c.token = token
	http.SetCookie(c.w, c.cookie(c.opts.TokenName, token, c.opts.MaxAge))
}

func (c *Cookie) Get() (string, bool) {
	return c.token, c.token != ""
}

func (c *Cookie) Clear() {
	c.token = ""
	http.SetCookie(c.w, c.cookie(c.opts.TokenName, "", -1))
}

func (c *Cookie) IsAuthenticated() bool {
	return c.token != ""
}

// ID returns a stable identifier for this browser, minting one on first
// use. It survives logout so in-flight bookkeeping stays keyed consistently.
func (c *Cookie) ID() string {
	if c.id == "" {
		c.id = xid.New().String()
		http.SetCookie(c.w, c.cookie(c.opts.IDName, c.id, 0))
	}
	return c.id
}

// cookie builds an HttpOnly, SameSite=Lax cookie. maxAge < 0 deletes it.
func (c *Cookie) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		ck.MaxAge = -1
	case maxAge > 0:
		ck.MaxAge = int(maxAge.Seconds())
	}
	return ck
}
