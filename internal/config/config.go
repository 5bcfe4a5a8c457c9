// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file, a .env file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Retrieval sources accepted by Options.RetrievalSource.
const (
	// SourceDatabase serves downloads from the stored blob.
	SourceDatabase = "database"
	// SourceDisk serves downloads from the category directory on disk.
	SourceDisk = "disk"
)

// Duration is a time.Duration that reads "30s"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// UploadsDir is the root of the per-category upload directories.
	UploadsDir string `json:"uploads_dir"`

	// SessionSecret signs session cookies. Empty means a random per-process key.
	SessionSecret string `json:"session_secret"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// RetrievalSource selects where downloads read bytes from: "database" or "disk".
	RetrievalSource string `json:"retrieval_source"`

	// MaxUploadBytes caps the upload request body; 0 disables the cap.
	MaxUploadBytes int64 `json:"max_upload_bytes"`

	// OrphanSweepInterval enables the orphaned-file sweeper when positive.
	OrphanSweepInterval Duration `json:"orphan_sweep_interval"`

	// OrphanGrace is the minimum age of a file before the sweeper may remove it.
	OrphanGrace Duration `json:"orphan_grace"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values. Invalid configuration is fatal.
func Parse() *Options {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	options, err := Load(os.Args[1:], os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// Load builds Options from args, an optional JSON config file and the
// environment, in that order of increasing precedence.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Options, error) {
	options := &Options{}
	var sweep, grace time.Duration

	fs := flag.NewFlagSet("docportal", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.UploadsDir, "u", "instance/uploads", "uploads root directory")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.RetrievalSource, "source", SourceDatabase, "download source: database or disk")
	fs.Int64Var(&options.MaxUploadBytes, "max-upload", 32<<20, "max upload body size in bytes, 0 to disable")
	fs.DurationVar(&sweep, "sweep", 0, "orphaned file sweep interval, 0 to disable")
	fs.DurationVar(&grace, "grace", time.Hour, "minimum age of a file before it can be swept")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.OrphanSweepInterval = Duration(sweep)
	options.OrphanGrace = Duration(grace)

	// Override flags with environment variables if set
	if configPath, ok := lookupEnv("CONFIG"); ok && configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	if err := applyEnv(options, lookupEnv); err != nil {
		return nil, err
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyEnv(options *Options, lookupEnv func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":   &options.Port,
		"DATABASE_DSN":     &options.DatabaseDSN,
		"UPLOADS_DIR":      &options.UploadsDir,
		"SESSION_SECRET":   &options.SessionSecret,
		"LOG_LEVEL":        &options.LogLevel,
		"RETRIEVAL_SOURCE": &options.RetrievalSource,
		"TLS_CERT":         &options.TLSCert,
		"TLS_KEY":          &options.TLSKey,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookupEnv("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		options.MaxUploadBytes = n
	}

	durs := map[string]*Duration{
		"ORPHAN_SWEEP_INTERVAL": &options.OrphanSweepInterval,
		"ORPHAN_GRACE":          &options.OrphanGrace,
	}
	for name, dst := range durs {
		if v, ok := lookupEnv(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = Duration(d)
		}
	}
	return nil
}

// Validate reports the first inconsistent option.
func (o *Options) Validate() error {
	if o.RetrievalSource != SourceDatabase && o.RetrievalSource != SourceDisk {
		return fmt.Errorf("retrieval source must be %q or %q, got %q", SourceDatabase, SourceDisk, o.RetrievalSource)
	}
	if o.UploadsDir == "" {
		return errors.New("uploads dir must not be empty")
	}
	if o.MaxUploadBytes < 0 {
		return errors.New("max upload bytes must not be negative")
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	return nil
}
