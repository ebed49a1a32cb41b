package matrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultMatrixYAML = `
scenarios:
  - name: Default TTL
    expect: {success: true}
  - name: Custom TTL 5m
    ttl: 5m
    expect: {lease_duration: 300}
  - name: Custom TTL 1h
    ttl: 1h
    expect: {lease_duration: 3600}
  - name: Custom TTL 30s
    ttl: 30s
    expect: {lease_duration: 30}
  - name: Invalid TTL
    ttl: invalid
    expect: {rejected_containing: invalid ttl format}
`

func TestParseScenarios_MatchesDefaults(t *testing.T) {
	got, err := ParseScenarios([]byte(defaultMatrixYAML))
	require.NoError(t, err)
	assert.Equal(t, DefaultScenarios(), got)
}

func TestLoadScenarios_ExpandsEnv(t *testing.T) {
	t.Setenv("KRBTTL_TEST_TTL", "2h")
	path := filepath.Join(t.TempDir(), "matrix.yaml")
	data := []byte(`
scenarios:
  - name: Custom TTL ${KRBTTL_TEST_TTL}
    ttl: ${KRBTTL_TEST_TTL}
    expect: {lease_duration: 7200}
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Scenario{Name: "Custom TTL 2h", TTL: "2h", Expect: SuccessWithDuration(7200)}, got[0])
}

func TestLoadScenarios_MissingFile(t *testing.T) {
	_, err := LoadScenarios(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenarios_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty document", ``, "no scenarios defined"},
		{"empty list", `scenarios: []`, "no scenarios defined"},
		{"unknown field", "scenarios:\n  - name: a\n    tll: 5m\n    expect: {success: true}\n", "field tll not found"},
		{"missing name", "scenarios:\n  - expect: {success: true}\n", "name is required"},
		{"duplicate name", "scenarios:\n  - name: a\n    expect: {success: true}\n  - name: a\n    expect: {success: true}\n", `duplicate name "a"`},
		{"no expectation", "scenarios:\n  - name: a\n    ttl: 5m\n", "is required"},
		{"two expectations", "scenarios:\n  - name: a\n    expect: {success: true, lease_duration: 30}\n", "only one of"},
		{"negative lease", "scenarios:\n  - name: a\n    expect: {lease_duration: -1}\n", "non-negative"},
		{"empty substring", "scenarios:\n  - name: a\n    expect: {rejected_containing: \"  \"}\n", "must not be empty"},
		{"bad yaml", "scenarios: [", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarios([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
