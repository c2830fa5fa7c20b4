// Package slack serves the Apex Kudos slash commands (/praise, /my-praise,
// /my-points) for a Slack workspace.
//
// REQUEST VERIFICATION:
// Slack signs every request with the app's signing secret:
//
//	X-Slack-Request-Timestamp: 1531420618
//	X-Slack-Signature:         v0=<hex HMAC-SHA256 of "v0:<timestamp>:<raw body>">
//
// Requests older than five minutes are rejected to stop replays.
package slack

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// MaxClockSkew is how far a request timestamp may drift from now.
	MaxClockSkew = 5 * time.Minute

	maxBodyBytes = 64 << 10
)

var (
	ErrMissingHeaders = errors.New("slack: missing signature headers")
	ErrStaleRequest   = errors.New("slack: request timestamp outside allowed window")
	ErrBadSignature   = errors.New("slack: signature mismatch")
)

// Sign returns the X-Slack-Signature value for body at timestamp ts.
func Sign(secret []byte, ts string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "v0:%s:", ts)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks one signed request against the secret.
func VerifySignature(secret []byte, ts, signature string, body []byte, now time.Time) error {
	if ts == "" || signature == "" {
		return ErrMissingHeaders
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrStaleRequest
	}
	if d := now.Sub(time.Unix(sec, 0)); d > MaxClockSkew || d < -MaxClockSkew {
		return ErrStaleRequest
	}
	if !hmac.Equal([]byte(Sign(secret, ts, body)), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Verify is middleware that rejects unsigned or mis-signed requests with 401.
// The body is buffered for the check and restored for the next handler.
func Verify(secret []byte, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}

			err = VerifySignature(secret,
				r.Header.Get("X-Slack-Request-Timestamp"),
				r.Header.Get("X-Slack-Signature"),
				body, now())
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"unauthorized","message":"Invalid signature"}`+"\n")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
