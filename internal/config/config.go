// Package config holds the runtime settings of the najdeno server.
//
// Values are resolved in order: Default, then an optional JSON file, then
// command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/erazemk/najdeno/internal/blob"
)

// Config is the runtime configuration.
type Config struct {
	DBPath  string
	Addr    string
	LogPath string

	// JWTSecret signs session tokens. When empty a secret is generated and
	// kept in the database.
	JWTSecret string
	TokenTTL  time.Duration

	PollInterval      time.Duration
	ReconcileInterval time.Duration
	ExclusiveClaims   bool

	MediaDir string
	MediaURL string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:            "najdeno.sqlite3",
		Addr:              ":8080",
		TokenTTL:          7 * 24 * time.Hour,
		PollInterval:      3 * time.Second,
		ReconcileInterval: 10 * time.Minute,
		MediaDir:          "media",
		MediaURL:          "/media",
		S3Region:          "us-east-1",
	}
}

// Duration is a time.Duration written as a string such as "90s" in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// file is the JSON form of Config. Pointer fields distinguish "absent" from
// a zero value so that absent keys keep their defaults.
type file struct {
	DBPath            *string   `json:"db_path"`
	Addr              *string   `json:"addr"`
	LogPath           *string   `json:"log_path"`
	JWTSecret         *string   `json:"jwt_secret"`
	TokenTTL          *Duration `json:"token_ttl"`
	PollInterval      *Duration `json:"poll_interval"`
	ReconcileInterval *Duration `json:"reconcile_interval"`
	ExclusiveClaims   *bool     `json:"exclusive_claims"`
	MediaDir          *string   `json:"media_dir"`
	MediaURL          *string   `json:"media_url"`
	S3Bucket          *string   `json:"s3_bucket"`
	S3Region          *string   `json:"s3_region"`
	S3Endpoint        *string   `json:"s3_endpoint"`
	S3AccessKey       *string   `json:"s3_access_key"`
	S3SecretKey       *string   `json:"s3_secret_key"`
	S3PublicURL       *string   `json:"s3_public_url"`
}

// LoadFile overlays the settings present in a JSON file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	setString(&c.DBPath, f.DBPath)
	setString(&c.Addr, f.Addr)
	setString(&c.LogPath, f.LogPath)
	setString(&c.JWTSecret, f.JWTSecret)
	setDuration(&c.TokenTTL, f.TokenTTL)
	setDuration(&c.PollInterval, f.PollInterval)
	setDuration(&c.ReconcileInterval, f.ReconcileInterval)
	if f.ExclusiveClaims != nil {
		c.ExclusiveClaims = *f.ExclusiveClaims
	}
	setString(&c.MediaDir, f.MediaDir)
	setString(&c.MediaURL, f.MediaURL)
	setString(&c.S3Bucket, f.S3Bucket)
	setString(&c.S3Region, f.S3Region)
	setString(&c.S3Endpoint, f.S3Endpoint)
	setString(&c.S3AccessKey, f.S3AccessKey)
	setString(&c.S3SecretKey, f.S3SecretKey)
	setString(&c.S3PublicURL, f.S3PublicURL)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.ReconcileInterval < 0 {
		errs = append(errs, errors.New("reconcile interval must not be negative"))
	}
	if c.S3Bucket == "" && c.MediaDir == "" {
		errs = append(errs, errors.New("either an s3 bucket or a media directory is required"))
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		errs = append(errs, errors.New("s3 access key and secret key must be set together"))
	}
	return errors.Join(errs...)
}

// UseS3 reports whether photos go to S3 rather than the media directory.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// S3 returns the object storage settings.
func (c *Config) S3() blob.S3Config {
	return blob.S3Config{
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		PublicURL: c.S3PublicURL,
	}
}
