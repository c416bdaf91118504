package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CredentialsFile represents the ~/.toolforge/credentials.json file.
type CredentialsFile struct {
	Version int                         `json:"version"`
	Servers map[string]ServerCredential `json:"servers"`
}

// ServerCredential holds auth info for a single MCP server used as an
// import source.
type ServerCredential struct {
	Type        string     `json:"type"`                   // "bearer" or "oauth"
	Token       string     `json:"token,omitempty"`        // for bearer type
	AccessToken string     `json:"access_token,omitempty"` // for oauth type
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`   // for oauth type
	Scope       string     `json:"scope,omitempty"`        // for oauth type
}

// LoadCredentials reads and parses a credentials file at the given path.
// A missing file yields an empty CredentialsFile with Version=1, not an
// error.
func LoadCredentials(path string) (*CredentialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &CredentialsFile{
				Version: 1,
				Servers: make(map[string]ServerCredential),
			}, nil
		}
		return nil, err
	}

	var creds CredentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	if creds.Servers == nil {
		creds.Servers = make(map[string]ServerCredential)
	}
	return &creds, nil
}

// SaveCredentials writes the credentials to the given path, creating the
// parent directory with 0700 permissions and the file with 0600.
func SaveCredentials(path string, creds *CredentialsFile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetToken returns the stored token for the given server URL, or "" if
// none is stored. For oauth entries the access token is returned unless it
// has expired.
func GetToken(creds *CredentialsFile, serverURL string) string {
	if creds.Servers == nil {
		return ""
	}
	sc, ok := creds.Servers[serverURL]
	if !ok {
		return ""
	}
	if sc.Type == "oauth" {
		if IsTokenExpired(sc) {
			return ""
		}
		return sc.AccessToken
	}
	return sc.Token
}

// SetToken stores a bearer token for the given server URL.
func SetToken(creds *CredentialsFile, serverURL, token string) {
	if creds.Servers == nil {
		creds.Servers = make(map[string]ServerCredential)
	}
	creds.Servers[serverURL] = ServerCredential{
		Type:  "bearer",
		Token: token,
	}
}

// SetOAuthToken stores a fetched OAuth2 access token for the given server
// URL.
func SetOAuthToken(creds *CredentialsFile, serverURL, accessToken, scope string, expiresAt *time.Time) {
	if creds.Servers == nil {
		creds.Servers = make(map[string]ServerCredential)
	}
	creds.Servers[serverURL] = ServerCredential{
		Type:        "oauth",
		AccessToken: accessToken,
		Scope:       scope,
		ExpiresAt:   expiresAt,
	}
}

// IsTokenExpired returns true if the credential has an expires_at in the
// past. No expiry means not expired.
func IsTokenExpired(sc ServerCredential) bool {
	if sc.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*sc.ExpiresAt)
}
