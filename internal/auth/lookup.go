package auth

import (
	"os"
	"path/filepath"
)

// DefaultCredentialsPath returns the path to the credentials file. The
// TOOLFORGE_CREDENTIALS_FILE env var wins if set; otherwise
// ~/.toolforge/credentials.json.
func DefaultCredentialsPath() string {
	if p := os.Getenv("TOOLFORGE_CREDENTIALS_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolforge", "credentials.json")
}

// LookupToken resolves an auth token for an MCP import source using the
// following priority:
//  1. flagToken (from --auth-token) — returned if non-empty
//  2. TOOLFORGE_AUTH_TOKEN env var — returned if set
//  3. Credentials file at DefaultCredentialsPath() — returned if it holds
//     an unexpired token for serverURL
//
// Returns an empty string if no token is found.
func LookupToken(flagToken, serverURL string) string {
	if flagToken != "" {
		return flagToken
	}

	if t := os.Getenv("TOOLFORGE_AUTH_TOKEN"); t != "" {
		return t
	}

	path := DefaultCredentialsPath()
	if path == "" {
		return ""
	}
	creds, err := LoadCredentials(path)
	if err != nil {
		return ""
	}
	return GetToken(creds, serverURL)
}
