package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")}, envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Port)
	assert.Equal(t, "instance/uploads", opts.UploadsDir)
	assert.Equal(t, SourceDatabase, opts.RetrievalSource)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, int64(32<<20), opts.MaxUploadBytes)
	assert.Equal(t, Duration(0), opts.OrphanSweepInterval)
	assert.Equal(t, Duration(time.Hour), opts.OrphanGrace)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	body := `{
		"address": "file:1",
		"database_dsn": "postgres://file",
		"uploads_dir": "/srv/file",
		"retrieval_source": "disk",
		"orphan_sweep_interval": "10m"
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	opts, err := Load(
		[]string{"-a", "flag:1", "-c", cfgPath},
		envFrom(map[string]string{
			"SERVER_ADDRESS": "env:1",
			"ORPHAN_GRACE":   "5m",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "env:1", opts.Port, "env wins over file and flags")
	assert.Equal(t, "postgres://file", opts.DatabaseDSN, "file wins over flag default")
	assert.Equal(t, "/srv/file", opts.UploadsDir)
	assert.Equal(t, SourceDisk, opts.RetrievalSource)
	assert.Equal(t, Duration(10*time.Minute), opts.OrphanSweepInterval)
	assert.Equal(t, Duration(5*time.Minute), opts.OrphanGrace)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "alt.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"session_secret":"s3cret"}`), 0o600))

	opts, err := Load(nil, envFrom(map[string]string{"CONFIG": cfgPath}))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", opts.SessionSecret)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{`), 0o600))
	missing := filepath.Join(dir, "none.json")

	cases := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"broken config file", []string{"-c", badJSON}, nil},
		{"unknown source", []string{"-c", missing, "-source", "s3"}, nil},
		{"negative upload cap", []string{"-c", missing, "-max-upload", "-1"}, nil},
		{"cert without key", []string{"-c", missing, "-tls-cert", "a.crt"}, nil},
		{"bad env size", []string{"-c", missing}, map[string]string{"MAX_UPLOAD_BYTES": "lots"}},
		{"bad env duration", []string{"-c", missing}, map[string]string{"ORPHAN_GRACE": "soon"}},
		{"unknown flag", []string{"-zzz"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.args, envFrom(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, Duration(90*time.Second), d)

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, Duration(1000), d)

	assert.Error(t, d.UnmarshalJSON([]byte(`"later"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
