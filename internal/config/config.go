package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "leakscan"

	// DefaultRetry is the number of additional attempts after a failed request.
	DefaultRetry = 5

	// DefaultTimeout bounds each request attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultTaskConcurrency of 0 leaves the number of tasks unbounded.
	DefaultTaskConcurrency = 0

	// DefaultRequestConcurrency of 0 leaves the number of requests unbounded.
	DefaultRequestConcurrency = 0

	// DefaultMaxBodySize caps a response body at 32 MiB.
	DefaultMaxBodySize = 32 * 1024 * 1024

	// DefaultUserAgent is sent when no User-Agent header is configured.
	DefaultUserAgent = "leakscan/1.0 (+https://github.com/nao1215/leakscan)"

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of a scan run.
type Config struct {
	// Location is a file path, an http(s) URL, or "-" to read locations
	// from stdin, one per line.
	Location string

	// Headers are raw "name: value" entries sent with every request.
	Headers []string

	// Retry is the number of additional attempts after a failed request.
	Retry int

	// Timeout bounds each request attempt.
	Timeout time.Duration

	// TaskConcurrency caps locations processed at once; 0 is unbounded.
	TaskConcurrency int

	// RequestConcurrency caps requests in flight across all tasks; 0 is unbounded.
	RequestConcurrency int

	// Summary prints a description of each match on stderr.
	Summary bool

	// JSON prints each match as a JSON record on stdout.
	JSON bool

	// Unique suppresses repeated matched text across the whole run.
	Unique bool

	// Embed includes the scanned text in every record.
	Embed bool

	// WriteFile receives a JSON record per match, appended.
	WriteFile string

	// RulesFile replaces the built-in rule database.
	RulesFile string

	// Gitleaks adds the gitleaks default rules.
	Gitleaks bool

	// GitleaksConfig adds the rules of a gitleaks TOML file.
	GitleaksConfig string

	// Offline disables network fetching; URLs scan as empty documents.
	Offline bool

	// ProxyAddress routes requests through a SOCKS5 proxy at host:port.
	ProxyAddress string

	// UseTor routes requests through an embedded Tor daemon.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Rate limits requests per second across the run; 0 is unlimited.
	Rate float64

	// MaxBodySize caps the bytes read from a response; 0 is unlimited.
	MaxBodySize int64

	// UserAgent is sent when the headers do not carry one.
	UserAgent string

	// DBPath enables the SQLite findings history.
	DBPath string

	// ReportFile receives a Markdown summary at the end of the run.
	ReportFile string

	// MetricsFile receives run metrics in the Prometheus text format.
	MetricsFile string

	// ConfigFilePath is an explicit configuration file.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// File is the loaded configuration file, if any.
	File *File
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Retry:              DefaultRetry,
		Timeout:            DefaultTimeout,
		TaskConcurrency:    DefaultTaskConcurrency,
		RequestConcurrency: DefaultRequestConcurrency,
		MaxBodySize:        DefaultMaxBodySize,
		UserAgent:          DefaultUserAgent,
		TorStartupTimeout:  DefaultTorStartupTimeout,
	}
}

// XDGConfigDir returns the per-user configuration directory.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDataDir returns the per-user data directory.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultDBPath is the history database used by the history command
// when --db is not given.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), "history.db")
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Location == "" {
		return ErrNoLocation
	}
	if c.Retry < 0 {
		return ErrInvalidRetry
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.TaskConcurrency < 0 || c.RequestConcurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingTransport
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
