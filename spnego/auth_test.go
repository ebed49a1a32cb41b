package spnego

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCredentials_Validate(t *testing.T) {
	if err := (&Credentials{Username: "alice"}).Validate(); err != nil {
		t.Errorf("Validate() with username only: %v", err)
	}
	if err := (&Credentials{Password: "pw"}).Validate(); err == nil {
		t.Error("Validate() without username should fail")
	}
}

// TestCredentials_LogRedaction verifies that the password never reaches slog output.
func TestCredentials_LogRedaction(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	logger := slog.New(handler)

	secretPass := "SecretCredPass123!"
	creds := Credentials{
		Username: "admin",
		Password: secretPass,
		Domain:   "MATRIX",
	}

	logger.Info("credentials", "creds", creds)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "admin") {
		t.Errorf("log output should contain username 'admin', got: %s", logOutput)
	}
	if strings.Contains(logOutput, secretPass) {
		t.Errorf("SECURITY FAIL: log output contains plaintext password! Got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "REDACTED") {
		t.Errorf("log output should contain redaction marker, got: %s", logOutput)
	}
}
