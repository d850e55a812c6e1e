package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrInvalidIDToken indicates Google rejected the provided identity token or
// the token was not issued for this application.
var ErrInvalidIDToken = errors.New("invalid google id token")

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the subset of the Google token claims the platform uses.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	client       *http.Client
}

// NewGoogleVerifier constructs a verifier for the provided OAuth client id.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:     clientID,
		tokenInfoURL: defaultTokenInfoURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// WithTokenInfoURL points the verifier at an alternate endpoint. Used by tests.
func (v *GoogleVerifier) WithTokenInfoURL(u string) *GoogleVerifier {
	v.tokenInfoURL = u
	return v
}

type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify checks the ID token with Google and returns the asserted identity.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	if idToken == "" {
		return GoogleIdentity{}, ErrInvalidIDToken
	}

	endpoint := fmt.Sprintf("%s?id_token=%s", v.tokenInfoURL, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, ErrInvalidIDToken
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleIdentity{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return GoogleIdentity{}, ErrInvalidIDToken
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return GoogleIdentity{}, ErrInvalidIDToken
	}

	return GoogleIdentity{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
