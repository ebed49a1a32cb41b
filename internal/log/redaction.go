// Package log provides slog helpers shared by the krbttl command.
package log

import (
	"context"
	"log/slog"
	"strings"
)

// RedactedValue replaces any attribute value considered sensitive.
const RedactedValue = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of the key.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"passphrase",
	"secret",
	"token",
	"key",
	"auth",
	"ticket",
	"cred",
	"negotiate",
}

// sensitivePrefixes mark header-style values that carry a credential
// whatever key they are logged under.
var sensitivePrefixes = []string{
	"negotiate ",
	"kerberos ",
	"bearer ",
}

// RedactingHandler is a slog.Handler that redacts credentials, SPNEGO
// tokens and client tokens before records reach the next handler.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler creates a new RedactingHandler.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, redacted)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redactedAttrs[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redactedAttrs)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	// LogValuers such as spnego.Credentials render to groups.
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redactedGroup := make([]any, len(attrs))
		for i, attr := range attrs {
			redactedGroup[i] = redactAttr(attr)
		}
		return slog.Group(a.Key, redactedGroup...)
	}

	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}
	if a.Value.Kind() == slog.KindString && hasSensitivePrefix(a.Value.String()) {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}

// IsSensitiveKey reports whether values logged under key are redacted.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sens := range sensitiveKeys {
		if strings.Contains(lowerKey, sens) {
			return true
		}
	}
	return false
}

func hasSensitivePrefix(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	for _, p := range sensitivePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
