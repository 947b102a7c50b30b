package service

import (
	"Go_Blog/config"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// GitHubUser is the part of the GitHub /user payload the blog keeps.
type GitHubUser struct {
	ID        uint64 `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// AuthService signs users in with GitHub OAuth and issues session tokens.
type AuthService struct {
	oauth  *oauth2.Config
	apiURL string
	client *http.Client
	users  *UserService
	issuer *utils.TokenIssuer
}

// NewAuthService builds the OAuth client from cfg.
func NewAuthService(cfg *config.Config, users *UserService, issuer *utils.TokenIssuer) *AuthService {
	return &AuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.GitHubURL + "/login/oauth/authorize",
				TokenURL:  cfg.GitHubURL + "/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiURL: cfg.GitHubAPIURL,
		client: &http.Client{Timeout: 15 * time.Second},
		users:  users,
		issuer: issuer,
	}
}

// ClientID is handed to the frontend to start the OAuth flow.
func (s *AuthService) ClientID() string {
	return s.oauth.ClientID
}

// Login exchanges an OAuth code, stores the GitHub profile and returns the
// user with a fresh session token.
func (s *AuthService) Login(ctx context.Context, code string) (*model.User, string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, "", fmt.Errorf("%w: code required", ErrInvalidInput)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: exchange code: %v", ErrUnauthorized, err)
	}

	gh, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.Upsert(ctx, &model.User{
		ID:       gh.ID,
		UserName: gh.Login,
		Photo:    gh.AvatarURL,
	})
	if err != nil {
		return nil, "", err
	}
	signed, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, signed, nil
}

func (s *AuthService) fetchUser(ctx context.Context, token *oauth2.Token) (*GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: github user status %d", ErrUnauthorized, resp.StatusCode)
	}
	var gh GitHubUser
	if err = json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("decode github user: %w", err)
	}
	if gh.ID == 0 || gh.Login == "" {
		return nil, fmt.Errorf("%w: incomplete github profile", ErrUnauthorized)
	}
	return &gh, nil
}
