// Package auth carries the authentication descriptor extracted from schema
// sources and the credential plumbing used when importing from live MCP
// servers.
package auth

import (
	"fmt"
	"strings"
)

// Kind identifies the authentication style a generated server enforces.
type Kind string

const (
	KindNone   Kind = "none"
	KindAPIKey Kind = "api_key"
	KindBearer Kind = "bearer"
	KindBasic  Kind = "basic"
	KindOAuth2 Kind = "oauth2"
)

// Config describes how a generated server authenticates its outbound
// calls. It is produced by the OpenAPI adapter from the document's security
// schemes and consumed by the code synthesizer.
type Config struct {
	Kind       Kind
	SchemeName string // scheme name as declared in the source document
	EnvVar     string // environment variable holding the credential
	HeaderName string // header to send for api_key style ("" otherwise)
	In         string // api_key location: "header", "query", or "cookie"
}

// None is the descriptor for unauthenticated APIs.
func None() *Config {
	return &Config{Kind: KindNone}
}

// EnvVarFor derives the credential environment variable for a scheme name:
// uppercased scheme plus a suffix by kind (_API_KEY, _TOKEN, _CREDENTIALS).
func EnvVarFor(schemeName string, kind Kind) string {
	base := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(schemeName))
	if base == "" {
		base = "API"
	}
	switch kind {
	case KindAPIKey:
		return base + "_API_KEY"
	case KindBearer, KindOAuth2:
		return base + "_TOKEN"
	case KindBasic:
		return base + "_CREDENTIALS"
	}
	return ""
}

// EnvVars returns the environment variables the generated server requires.
func (c *Config) EnvVars() []string {
	if c == nil || c.Kind == KindNone || c.EnvVar == "" {
		return nil
	}
	return []string{c.EnvVar}
}

// EnvCheckSnippet returns Go statements, for splicing into a generated
// server's startup path, that read the credential from the environment and
// fail fast when it is missing.
func (c *Config) EnvCheckSnippet() string {
	if c == nil || c.Kind == KindNone || c.EnvVar == "" {
		return ""
	}
	return fmt.Sprintf(`authCredential = os.Getenv(%q)
if authCredential == "" {
	log.Fatalf("missing required environment variable: %s")
}`, c.EnvVar, c.EnvVar)
}

// HeaderSnippet returns a Go statement that attaches the credential to an
// outbound *http.Request named req. Empty for kinds that do not use a
// header (none, or an api_key delivered via query string).
func (c *Config) HeaderSnippet() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case KindBearer, KindOAuth2:
		return `req.Header.Set("Authorization", "Bearer "+authCredential)`
	case KindBasic:
		return `req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(authCredential)))`
	case KindAPIKey:
		if c.In == "query" {
			return ""
		}
		if c.In == "cookie" {
			name := c.HeaderName
			if name == "" {
				name = "session"
			}
			return fmt.Sprintf("req.Header.Set(\"Cookie\", %q+authCredential)", name+"=")
		}
		header := c.HeaderName
		if header == "" {
			header = "X-API-Key"
		}
		return fmt.Sprintf("req.Header.Set(%q, authCredential)", header)
	}
	return ""
}

// QueryParam returns the query-string parameter name carrying the
// credential, or "" when the credential travels in a header.
func (c *Config) QueryParam() string {
	if c != nil && c.Kind == KindAPIKey && c.In == "query" {
		return c.HeaderName
	}
	return ""
}
