package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsToken fetches an access token via the OAuth2 client
// credentials grant and stores it in the credentials file so later runs
// against the same server can reuse it.
func ClientCredentialsToken(ctx context.Context, serverURL, tokenURL, clientID, clientSecret string, scopes []string) (string, error) {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: fetching client-credentials token: %w", err)
	}

	if path := DefaultCredentialsPath(); path != "" {
		creds, loadErr := LoadCredentials(path)
		if loadErr == nil {
			var expiresAt *time.Time
			if !tok.Expiry.IsZero() {
				t := tok.Expiry
				expiresAt = &t
			}
			SetOAuthToken(creds, serverURL, tok.AccessToken, "", expiresAt)
			_ = SaveCredentials(path, creds)
		}
	}

	return tok.AccessToken, nil
}
