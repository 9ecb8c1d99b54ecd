// Package main provides the entry point for the leakscan CLI.
//
// leakscan searches local files and HTTP(S) resources for leaked secrets
// such as API keys, tokens and private keys.
//
// Usage:
//
//	leakscan scan <file-or-url>
//	cat urls.txt | leakscan scan -
//
// See --help for all available options.
package main

func main() {
	Execute()
}
