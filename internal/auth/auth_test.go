package auth

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Config tests
// ---------------------------------------------------------------------------

func TestEnvVarFor(t *testing.T) {
	tests := []struct {
		scheme string
		kind   Kind
		want   string
	}{
		{"ApiKeyAuth", KindAPIKey, "APIKEYAUTH_API_KEY"},
		{"bearerAuth", KindBearer, "BEARERAUTH_TOKEN"},
		{"oauth2", KindOAuth2, "OAUTH2_TOKEN"},
		{"basic-auth", KindBasic, "BASIC_AUTH_CREDENTIALS"},
		{"", KindAPIKey, "API_API_KEY"},
		{"x", KindNone, ""},
	}
	for _, tc := range tests {
		if got := EnvVarFor(tc.scheme, tc.kind); got != tc.want {
			t.Errorf("EnvVarFor(%q, %q) = %q, want %q", tc.scheme, tc.kind, got, tc.want)
		}
	}
}

func TestConfigSnippets(t *testing.T) {
	t.Run("bearer", func(t *testing.T) {
		cfg := &Config{Kind: KindBearer, EnvVar: "PETSTORE_TOKEN"}
		check := cfg.EnvCheckSnippet()
		if !strings.Contains(check, `os.Getenv("PETSTORE_TOKEN")`) {
			t.Errorf("EnvCheckSnippet missing getenv: %s", check)
		}
		if !strings.Contains(check, "log.Fatalf") {
			t.Errorf("EnvCheckSnippet missing failure path: %s", check)
		}
		header := cfg.HeaderSnippet()
		if !strings.Contains(header, `"Authorization", "Bearer "+authCredential`) {
			t.Errorf("HeaderSnippet = %s", header)
		}
	})

	t.Run("api key header", func(t *testing.T) {
		cfg := &Config{Kind: KindAPIKey, EnvVar: "X_API_KEY", HeaderName: "X-API-Key", In: "header"}
		if got := cfg.HeaderSnippet(); !strings.Contains(got, `"X-API-Key"`) {
			t.Errorf("HeaderSnippet = %s", got)
		}
		if got := cfg.QueryParam(); got != "" {
			t.Errorf("QueryParam = %q, want empty", got)
		}
	})

	t.Run("api key in query", func(t *testing.T) {
		cfg := &Config{Kind: KindAPIKey, EnvVar: "K", HeaderName: "api_key", In: "query"}
		if got := cfg.HeaderSnippet(); got != "" {
			t.Errorf("HeaderSnippet = %q, want empty", got)
		}
		if got := cfg.QueryParam(); got != "api_key" {
			t.Errorf("QueryParam = %q, want api_key", got)
		}
	})

	t.Run("api key in cookie", func(t *testing.T) {
		cfg := &Config{Kind: KindAPIKey, EnvVar: "K", HeaderName: "sessionid", In: "cookie"}
		if got := cfg.HeaderSnippet(); !strings.Contains(got, `"Cookie", "sessionid="+authCredential`) {
			t.Errorf("HeaderSnippet = %s", got)
		}
		if got := cfg.QueryParam(); got != "" {
			t.Errorf("QueryParam = %q, want empty", got)
		}
	})

	t.Run("basic", func(t *testing.T) {
		cfg := &Config{Kind: KindBasic, EnvVar: "SVC_CREDENTIALS"}
		if got := cfg.HeaderSnippet(); !strings.Contains(got, "base64.StdEncoding") {
			t.Errorf("HeaderSnippet = %s", got)
		}
	})

	t.Run("none", func(t *testing.T) {
		cfg := None()
		if cfg.EnvCheckSnippet() != "" || cfg.HeaderSnippet() != "" {
			t.Error("expected empty snippets for kind none")
		}
		if cfg.EnvVars() != nil {
			t.Error("expected no env vars for kind none")
		}
	})
}

// ---------------------------------------------------------------------------
// Credentials store tests
// ---------------------------------------------------------------------------

func TestCredentialsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials on missing file: %v", err)
	}
	if creds.Version != 1 || len(creds.Servers) != 0 {
		t.Fatalf("unexpected empty credentials: %+v", creds)
	}

	SetToken(creds, "https://api.example.com", "tok-123")
	if err := SaveCredentials(path, creds); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	loaded, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got := GetToken(loaded, "https://api.example.com"); got != "tok-123" {
		t.Errorf("GetToken = %q, want tok-123", got)
	}
	if got := GetToken(loaded, "https://other.example.com"); got != "" {
		t.Errorf("GetToken for unknown server = %q, want empty", got)
	}
}

func TestExpiredOAuthTokenNotReturned(t *testing.T) {
	creds := &CredentialsFile{Version: 1, Servers: make(map[string]ServerCredential)}
	past := time.Now().Add(-time.Hour)
	SetOAuthToken(creds, "https://api.example.com", "stale", "", &past)

	if got := GetToken(creds, "https://api.example.com"); got != "" {
		t.Errorf("GetToken returned expired token %q", got)
	}

	future := time.Now().Add(time.Hour)
	SetOAuthToken(creds, "https://api.example.com", "fresh", "", &future)
	if got := GetToken(creds, "https://api.example.com"); got != "fresh" {
		t.Errorf("GetToken = %q, want fresh", got)
	}
}

func TestLookupTokenPriority(t *testing.T) {
	t.Setenv("TOOLFORGE_AUTH_TOKEN", "from-env")
	if got := LookupToken("from-flag", "https://x"); got != "from-flag" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := LookupToken("", "https://x"); got != "from-env" {
		t.Errorf("env should win over store, got %q", got)
	}
}
