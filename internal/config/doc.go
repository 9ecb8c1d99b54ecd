// Package config holds the settings of a scan run.
//
// Values come from four layers, highest precedence first: command-line
// flags, LEAKSCAN_* environment variables, the .leakscan.yaml file and
// built-in defaults. Bind resolves the layers with viper; Validate checks
// the result before any work starts.
package config
