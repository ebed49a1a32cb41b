package login

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "authenticated", KindAuthenticated.String())
	assert.Equal(t, "rejected", KindRejected.String())
	assert.Equal(t, "transport failure", KindTransportFailure.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestZeroResultIsNotSuccess(t *testing.T) {
	var r Result
	assert.Equal(t, KindTransportFailure, r.Kind)
	assert.Nil(t, r.Authenticated)
}

func TestNewRejected_NilErrors(t *testing.T) {
	r := NewRejected(500, nil)
	assert.NotNil(t, r.Rejected.Errors)
	assert.Empty(t, r.Rejected.Errors)
}

func TestResultString(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want string
	}{
		{"authenticated", NewAuthenticated("hvs.secret", 300), "authenticated (lease_duration=300s)"},
		{"rejected no errors", NewRejected(403, nil), "rejected with status 403"},
		{"rejected with errors", NewRejected(400, []string{"a", "b"}), "rejected with status 400: a; b"},
		{"failure", NewTransportFailure(errors.New("dial tcp: refused")), "transport failure: dial tcp: refused"},
		{"failure nil cause", NewTransportFailure(nil), "transport failure"},
		{"zero", Result{}, "transport failure"},
		{"inconsistent", Result{Kind: KindAuthenticated}, "invalid result: authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.String()
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "hvs.secret")
		})
	}
}
