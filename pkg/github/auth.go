package github

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authentication constants.
const (
	maxTokenLength   = 255 // Maximum expected length for GitHub tokens
	minTokenLength   = 40  // Minimum expected length for GitHub tokens
	maxAppID         = 999999999
	jwtLifetime      = 10 * time.Minute // GitHub App JWTs expire after 10 minutes max
	jwtRefreshSlack  = 1 * time.Minute
	filePermReadOnly = 0o400
	filePermOwnerRW  = 0o600
)

// newPersonalTokenClient creates a GitHub client with personal token authentication.
func newPersonalTokenClient(cfg Config) (*Client, error) {
	if err := validateToken(cfg.Token); err != nil {
		return nil, err
	}

	slog.Info("Using personal access token authentication", "component", "auth")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		token:      cfg.Token,
		isAppAuth:  false,
	}, nil
}

// newAppAuthClient creates a GitHub client with App authentication.
func newAppAuthClient(_ context.Context, cfg Config) (*Client, error) {
	if err := validateAppID(cfg.AppID); err != nil {
		return nil, err
	}

	privateKey, err := loadPrivateKey(cfg.AppKeyPath)
	if err != nil {
		return nil, err
	}

	token, err := generateJWT(cfg.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	slog.Info("Generated JWT for GitHub App", "component", "auth", "app_id", cfg.AppID)

	return &Client{
		httpClient:         &http.Client{Timeout: cfg.HTTPTimeout},
		token:              token,
		appID:              cfg.AppID,
		privateKey:         privateKey,
		isAppAuth:          true,
		installationTokens: make(map[string]string),
		installationExpiry: make(map[string]time.Time),
		installationIDs:    make(map[string]int),
	}, nil
}

// authToken returns the token to authenticate the next request with. For
// App auth with a current org set, this is the org's installation token;
// otherwise the personal token or App JWT.
func (c *Client) authToken(ctx context.Context) (string, error) {
	if !c.isAppAuth {
		c.tokenMutex.RLock()
		defer c.tokenMutex.RUnlock()
		return c.token, nil
	}

	c.tokenMutex.RLock()
	org := c.currentOrg
	c.tokenMutex.RUnlock()

	if org == "" {
		return c.refreshedJWT()
	}
	token, err := c.installationToken(ctx, org)
	if err != nil {
		// Graceful degradation: the JWT may still reach app-level endpoints.
		slog.Warn("Failed to get installation token, falling back to JWT", "org", org, "error", err)
		return c.refreshedJWT()
	}
	return token, nil
}

// refreshedJWT returns the current App JWT, regenerating it when stale.
func (c *Client) refreshedJWT() (string, error) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && time.Until(exp.Time) > jwtRefreshSlack {
			return c.token, nil
		}
	}

	fresh, err := generateJWT(c.appID, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to refresh JWT: %w", err)
	}
	c.token = fresh
	return fresh, nil
}

// installationToken mints (or reuses) an installation access token for org.
func (c *Client) installationToken(ctx context.Context, org string) (string, error) {
	c.tokenMutex.RLock()
	token, haveToken := c.installationTokens[org]
	expiry := c.installationExpiry[org]
	c.tokenMutex.RUnlock()

	if haveToken && time.Until(expiry) > jwtRefreshSlack {
		return token, nil
	}

	installID, err := c.installationID(ctx, org)
	if err != nil {
		return "", err
	}

	var result struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	apiURL := fmt.Sprintf("%s/app/installations/%d/access_tokens", apiBase, installID)
	if err := c.appRequest(ctx, http.MethodPost, apiURL, &result); err != nil {
		return "", fmt.Errorf("failed to create installation token: %w", err)
	}

	c.tokenMutex.Lock()
	c.installationTokens[org] = result.Token
	c.installationExpiry[org] = parseGitHubTime(result.ExpiresAt)
	c.tokenMutex.Unlock()

	slog.Info("Minted installation token", "component", "auth", "org", org)
	return result.Token, nil
}

// installationID resolves the App installation ID for an org or user account.
func (c *Client) installationID(ctx context.Context, org string) (int, error) {
	c.tokenMutex.RLock()
	id, ok := c.installationIDs[org]
	c.tokenMutex.RUnlock()
	if ok {
		return id, nil
	}

	var installation struct {
		ID int `json:"id"`
	}
	apiURL := fmt.Sprintf("%s/orgs/%s/installation", apiBase, org)
	if err := c.appRequest(ctx, http.MethodGet, apiURL, &installation); err != nil {
		// The account may be a user rather than an organization.
		apiURL = fmt.Sprintf("%s/users/%s/installation", apiBase, org)
		if userErr := c.appRequest(ctx, http.MethodGet, apiURL, &installation); userErr != nil {
			return 0, fmt.Errorf("failed to find installation for %s: %w", org, err)
		}
	}

	c.tokenMutex.Lock()
	c.installationIDs[org] = installation.ID
	c.tokenMutex.Unlock()
	return installation.ID, nil
}

// appRequest performs a JWT-authenticated App API request, decoding the
// response into out.
func (c *Client) appRequest(ctx context.Context, method, apiURL string, out any) error {
	token, err := c.refreshedJWT()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError(resp, "app request")
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// generateJWT generates a JWT token for GitHub App authentication.
func generateJWT(appID string, privateKey []byte) (string, error) {
	block, _ := pem.Decode(privateKey)
	if block == nil {
		return "", errors.New("failed to parse PEM block containing the private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format if PKCS1 fails
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("failed to parse private key: %w", err)
		}
		var ok bool
		key, ok = parsedKey.(*rsa.PrivateKey)
		if !ok {
			return "", errors.New("private key is not RSA")
		}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(jwtLifetime).Unix(),
		"iss": appID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}

// validateAppID validates the GitHub App ID.
func validateAppID(appID string) error {
	appIDNum, err := strconv.Atoi(appID)
	if err != nil {
		return fmt.Errorf("app ID must be numeric: %w", err)
	}
	if appIDNum <= 0 || appIDNum > maxAppID {
		return errors.New("app ID out of valid range")
	}
	return nil
}

// loadPrivateKey reads and validates the App private key file.
func loadPrivateKey(keyPath string) ([]byte, error) {
	if keyPath == "" {
		return nil, errors.New("GitHub App private key path is required")
	}

	cleanPath := filepath.Clean(keyPath)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access private key file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, errors.New("private key path must be a file, not a directory")
	}

	// Key material must not be readable by group or world
	perm := fileInfo.Mode().Perm()
	if perm != filePermOwnerRW && perm != filePermReadOnly {
		return nil, fmt.Errorf("private key file has insecure permissions %04o (must be 0600 or 0400)", perm)
	}

	return os.ReadFile(cleanPath)
}

// validateToken validates a GitHub personal access token.
func validateToken(token string) error {
	if token == "" {
		return fmt.Errorf("no GitHub token found: %w", ErrAuthentication)
	}
	if len(token) > maxTokenLength || len(token) < minTokenLength {
		return fmt.Errorf("invalid token length: %w", ErrAuthentication)
	}
	for _, r := range token {
		validChar := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-'
		if !validChar {
			return fmt.Errorf("token contains invalid characters: %w", ErrAuthentication)
		}
	}
	return nil
}
