package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/slack-go/slack"
)

const maxSlackBody = 1 << 20

// SlackSignature rejects requests whose X-Slack-Signature does not match the
// signing secret. An empty secret disables the check.
func SlackSignature(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if signingSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				slog.Warn("Rejected Slack request", "reason", "missing or stale signature headers", "error", err)
				response.Unauthorized(w, "Invalid Slack signature")
				return
			}

			body, err := io.ReadAll(io.TeeReader(http.MaxBytesReader(w, r.Body, maxSlackBody), &verifier))
			if err != nil {
				response.BadRequest(w, "Failed to read request body", nil)
				return
			}
			if err := verifier.Ensure(); err != nil {
				slog.Warn("Rejected Slack request", "reason", "signature mismatch")
				response.Unauthorized(w, "Invalid Slack signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
