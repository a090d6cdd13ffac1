package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	githubProfileURL = "https://api.github.com/user"
	googleProfileURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// ProfileDecoder turns a provider's profile document into a User.
type ProfileDecoder func(body []byte) (*User, error)

// DeviceConfig describes an OAuth 2.0 device authorization grant provider.
type DeviceConfig struct {
	ID           string
	Name         string
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	ProfileURL   string
	Profile      ProfileDecoder
}

// DeviceProvider signs users in through the device authorization grant, so
// no browser redirect back into the terminal is needed.
type DeviceProvider struct {
	id         string
	name       string
	oauth      *oauth2.Config
	profileURL string
	profile    ProfileDecoder
}

func NewDeviceProvider(cfg DeviceConfig) *DeviceProvider {
	return &DeviceProvider{
		id:   cfg.ID,
		name: cfg.Name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoint,
			Scopes:       cfg.Scopes,
		},
		profileURL: cfg.ProfileURL,
		profile:    cfg.Profile,
	}
}

// GitHub returns a device-flow provider for a GitHub OAuth app.
func GitHub(clientID string) *DeviceProvider {
	return NewDeviceProvider(DeviceConfig{
		ID:         "github",
		Name:       "GitHub",
		ClientID:   clientID,
		Endpoint:   endpoints.GitHub,
		Scopes:     []string{"read:user", "user:email"},
		ProfileURL: githubProfileURL,
		Profile:    decodeGitHubProfile,
	})
}

// Google returns a device-flow provider for a Google "TV and limited input"
// OAuth client.
func Google(clientID, clientSecret string) *DeviceProvider {
	return NewDeviceProvider(DeviceConfig{
		ID:           "google",
		Name:         "Google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
		ProfileURL:   googleProfileURL,
		Profile:      decodeGoogleProfile,
	})
}

func (p *DeviceProvider) ID() string   { return p.id }
func (p *DeviceProvider) Name() string { return p.name }

func (p *DeviceProvider) Authorize(ctx context.Context) (*Authorization, error) {
	resp, err := p.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}

	uri := resp.VerificationURI
	if uri == "" {
		uri = resp.VerificationURIComplete
	}

	return &Authorization{
		Provider:        p.id,
		VerificationURI: uri,
		UserCode:        resp.UserCode,
		Expiry:          resp.Expiry,
		state:           resp,
	}, nil
}

func (p *DeviceProvider) Complete(ctx context.Context, a *Authorization) (*User, error) {
	resp, ok := a.state.(*oauth2.DeviceAuthResponse)
	if !ok {
		return nil, errors.New("authorization was not started by this provider")
	}

	tok, err := p.oauth.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device token: %w", err)
	}

	return p.fetchProfile(ctx, p.oauth.Client(ctx, tok))
}

func (p *DeviceProvider) fetchProfile(ctx context.Context, client *http.Client) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	user, err := p.profile(body)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return user, nil
}

func decodeGitHubProfile(body []byte) (*User, error) {
	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, errors.New("profile has no id")
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}
	return &User{ID: strconv.FormatInt(gh.ID, 10), Name: name, Email: gh.Email}, nil
}

func decodeGoogleProfile(body []byte) (*User, error) {
	var g struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, err
	}
	if g.Sub == "" {
		return nil, errors.New("profile has no subject")
	}
	return &User{ID: g.Sub, Name: g.Name, Email: g.Email}, nil
}
