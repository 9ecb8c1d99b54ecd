package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Bind.
// A flag named task-concurrency is read from LEAKSCAN_TASK_CONCURRENCY.
const EnvPrefix = "LEAKSCAN"

// Flag names shared by the CLI and Bind.
const (
	FlagHeader             = "header"
	FlagRetry              = "retry"
	FlagTimeout            = "timeout"
	FlagTaskConcurrency    = "task-concurrency"
	FlagRequestConcurrency = "request-concurrency"
	FlagSummary            = "summary"
	FlagJSON               = "json"
	FlagUnique             = "unique"
	FlagEmbed              = "embed"
	FlagWrite              = "write"
	FlagRules              = "rules"
	FlagGitleaks           = "gitleaks"
	FlagGitleaksConfig     = "gitleaks-config"
	FlagOffline            = "offline"
	FlagProxy              = "proxy"
	FlagTor                = "tor"
	FlagTorTimeout         = "tor-timeout"
	FlagRate               = "rate"
	FlagMaxBody            = "max-body"
	FlagUserAgent          = "user-agent"
	FlagDB                 = "db"
	FlagReport             = "report"
	FlagMetricsFile        = "metrics-file"
	FlagConfig             = "config"
	FlagVerbose            = "verbose"
)

// Bind fills cfg from flags, the environment and cfg.File.
//
// For each option the first of these that is set wins: a flag given on
// the command line, a LEAKSCAN_* environment variable, the configuration
// file's defaults section, the flag's own default. Headers are not read
// from the environment; flag headers replace file headers entirely.
func Bind(flags *pflag.FlagSet, cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if cfg.File != nil {
		applyFileDefaults(v, cfg.File.Defaults)
	}

	has := func(name string) bool { return flags.Lookup(name) != nil }

	if has(FlagRetry) {
		cfg.Retry = v.GetInt(FlagRetry)
	}
	if has(FlagTimeout) {
		cfg.Timeout = time.Duration(v.GetInt64(FlagTimeout)) * time.Millisecond
	}
	if has(FlagTaskConcurrency) {
		cfg.TaskConcurrency = v.GetInt(FlagTaskConcurrency)
	}
	if has(FlagRequestConcurrency) {
		cfg.RequestConcurrency = v.GetInt(FlagRequestConcurrency)
	}
	if has(FlagRate) {
		cfg.Rate = v.GetFloat64(FlagRate)
	}
	if has(FlagMaxBody) {
		cfg.MaxBodySize = v.GetInt64(FlagMaxBody)
	}
	if has(FlagTorTimeout) {
		cfg.TorStartupTimeout = v.GetDuration(FlagTorTimeout)
	}

	for name, dst := range map[string]*bool{
		FlagSummary:  &cfg.Summary,
		FlagJSON:     &cfg.JSON,
		FlagUnique:   &cfg.Unique,
		FlagEmbed:    &cfg.Embed,
		FlagGitleaks: &cfg.Gitleaks,
		FlagOffline:  &cfg.Offline,
		FlagTor:      &cfg.UseTor,
		FlagVerbose:  &cfg.Verbose,
	} {
		if has(name) {
			*dst = v.GetBool(name)
		}
	}

	for name, dst := range map[string]*string{
		FlagWrite:          &cfg.WriteFile,
		FlagRules:          &cfg.RulesFile,
		FlagGitleaksConfig: &cfg.GitleaksConfig,
		FlagProxy:          &cfg.ProxyAddress,
		FlagUserAgent:      &cfg.UserAgent,
		FlagDB:             &cfg.DBPath,
		FlagReport:         &cfg.ReportFile,
		FlagMetricsFile:    &cfg.MetricsFile,
	} {
		if has(name) {
			*dst = v.GetString(name)
		}
	}

	if has(FlagHeader) {
		if flags.Changed(FlagHeader) {
			headers, err := flags.GetStringArray(FlagHeader)
			if err != nil {
				return fmt.Errorf("failed to read headers: %w", err)
			}
			cfg.Headers = headers
		} else if cfg.File != nil {
			cfg.Headers = cfg.File.Defaults.Headers
		}
	}
	return nil
}

// applyFileDefaults layers file values between the environment and the
// flag defaults.
func applyFileDefaults(v *viper.Viper, d Defaults) {
	if d.Retry != nil {
		v.SetDefault(FlagRetry, *d.Retry)
	}
	if d.Timeout != nil {
		v.SetDefault(FlagTimeout, *d.Timeout)
	}
	if d.TaskConcurrency != nil {
		v.SetDefault(FlagTaskConcurrency, *d.TaskConcurrency)
	}
	if d.RequestConcurrency != nil {
		v.SetDefault(FlagRequestConcurrency, *d.RequestConcurrency)
	}
	if d.Rate != nil {
		v.SetDefault(FlagRate, *d.Rate)
	}
	if d.Rules != "" {
		v.SetDefault(FlagRules, d.Rules)
	}
	if d.UserAgent != "" {
		v.SetDefault(FlagUserAgent, d.UserAgent)
	}
}

// HostHeaders returns the raw header entries configured per host.
func (f *File) HostHeaders() map[string][]string {
	if f == nil {
		return nil
	}
	out := make(map[string][]string, len(f.Hosts))
	for host, hc := range f.Hosts {
		if len(hc.Headers) > 0 {
			out[strings.ToLower(host)] = hc.Headers
		}
	}
	return out
}
