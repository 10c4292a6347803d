package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	opts, err := Parse(nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, opts.Address)
	assert.Equal(t, 30*time.Minute, opts.TokenTTL())
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, "development", opts.Environment)
	assert.Equal(t, "bcrypt", opts.PasswordHasher)
	assert.Equal(t, DevelopmentSecretKey, opts.SecretKey)
	assert.Equal(t, Duration(10*time.Second), opts.ShutdownTimeout)
	assert.True(t, opts.Development())
	assert.False(t, opts.TLSEnabled())
}

func TestParse_Precedence(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"address": "file:1",
		"secret_key": "from-file",
		"access_token_expire_minutes": 5,
		"log_level": "warn",
		"shutdown_timeout": "3s"
	}`)

	opts, err := Parse(
		[]string{"-c", path, "-a", "flag:2", "-t", "7"},
		env(map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "9"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "flag:2", opts.Address, "flag beats file")
	assert.Equal(t, 9, opts.AccessTokenExpireMinutes, "env beats flag")
	assert.Equal(t, "from-file", opts.SecretKey, "file beats default")
	assert.Equal(t, "warn", opts.LogLevel, "unset flag does not clobber file")
	assert.Equal(t, Duration(3*time.Second), opts.ShutdownTimeout)
}

func TestParse_YAMLFromEnv(t *testing.T) {
	path := writeFile(t, "server.yaml", `
address: ":9000"
environment: production
secret_key: s3cret
password_hasher: argon2id
tls_cert: server.crt
tls_key: server.key
shutdown_timeout: 1m
`)

	opts, err := Parse(nil, env(map[string]string{"CONFIG": path, "DEBUG": "true"}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", opts.Address)
	assert.True(t, opts.Production())
	assert.Equal(t, "argon2id", opts.PasswordHasher)
	assert.True(t, opts.TLSEnabled())
	assert.True(t, opts.Debug)
	assert.True(t, opts.Development())
	assert.Equal(t, Duration(time.Minute), opts.ShutdownTimeout)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"-zzz"}},
		{name: "bad ttl env", env: map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "soon"}},
		{name: "non-positive ttl", args: []string{"-t", "0"}},
		{name: "bad debug", env: map[string]string{"DEBUG": "maybe"}},
		{name: "missing config file", args: []string{"-config", "/does/not/exist.json"}},
		{name: "cert without key", args: []string{"-cert", "server.crt"}},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestParse_MalformedFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"address": `)
	_, err := Parse([]string{"-c", path}, env(nil))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestDuration_MarshalText(t *testing.T) {
	b, err := Duration(90 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))
}
