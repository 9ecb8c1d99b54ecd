package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for in the
// working and home directories.
const DefaultConfigFile = ".leakscan.yaml"

// xdgConfigFile is the file name inside the XDG configuration directory.
const xdgConfigFile = "config.yaml"

// Defaults are file-level defaults for scan options. Unset fields leave
// the built-in default in place.
type Defaults struct {
	Retry              *int     `yaml:"retry,omitempty"`
	Timeout            *int     `yaml:"timeout,omitempty"`
	TaskConcurrency    *int     `yaml:"taskConcurrency,omitempty"`
	RequestConcurrency *int     `yaml:"requestConcurrency,omitempty"`
	Rate               *float64 `yaml:"rate,omitempty"`
	Headers            []string `yaml:"headers,omitempty"`
	Rules              string   `yaml:"rules,omitempty"`
	UserAgent          string   `yaml:"userAgent,omitempty"`
}

// HostConfig holds options for one host.
type HostConfig struct {
	// Headers are sent only to this host and replace global headers of
	// the same name.
	Headers []string `yaml:"headers,omitempty"`
}

// File is the structure of .leakscan.yaml.
type File struct {
	Defaults Defaults `yaml:"defaults,omitempty"`
	// Hosts is keyed by host name without scheme or port.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// LoadConfigFile reads a configuration file. Unknown keys are rejected.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Hosts == nil {
		f.Hosts = make(map[string]HostConfig)
	}
	return &f, nil
}

// FindConfigFile returns the configuration file to use, or "" if none.
//
// An explicit path is returned only if it exists. Otherwise the search
// order is .leakscan.yaml in the working directory, config.yaml in the
// XDG configuration directory, then .leakscan.yaml in the home directory.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
