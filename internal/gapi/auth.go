package gapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// Scopes requested for gdoc
var Scopes = []string{drive.DriveScope, docs.DocumentsScope}

// storedToken is the token file layout. It accepts both the Google auth
// library field names and those of oauth2.Token.
type storedToken struct {
	Token        string    `json:"token,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (s *storedToken) oauth2Token() *oauth2.Token {
	access := s.AccessToken
	if access == "" {
		access = s.Token
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
}

// NewHTTPClient returns an HTTP client authorized with the stored token.
// Refreshed tokens are written back to tokenFile.
func NewHTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	stored, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}

	conf, err := oauthConfig(credentialsFile, stored)
	if err != nil {
		return nil, err
	}

	ts := &savingTokenSource{
		base:    conf.TokenSource(ctx, stored.oauth2Token()),
		path:    tokenFile,
		stored:  *stored,
		current: stored.oauth2Token().AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, ts)), nil
}

func loadToken(path string) (*storedToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.KindAuth, "Not authenticated. Run `gdoc auth` to authenticate.")
		}
		return nil, apperr.Wrap(apperr.KindAuth, err, "failed to read token: %v", err)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil || st.RefreshToken == "" {
		log.Printf("corrupt token file %s: %v", path, err)
		return nil, apperr.New(apperr.KindAuth, "stored credentials are corrupt. Run `gdoc auth` to re-authenticate.")
	}
	return &st, nil
}

// oauthConfig reads the client secrets file. A token that carries its own
// client id and secret is enough when the file is missing.
func oauthConfig(credentialsFile string, stored *storedToken) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err == nil {
		conf, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindAuth, err, "invalid credentials file %s: %v", credentialsFile, err)
		}
		return conf, nil
	}

	if stored == nil || stored.ClientID == "" {
		return nil, apperr.New(apperr.KindAuth,
			"credentials.json not found at %s. Download it from Google Cloud Console and place it there.", credentialsFile)
	}

	endpoint := google.Endpoint
	if stored.TokenURI != "" {
		endpoint.TokenURL = stored.TokenURI
	}
	return &oauth2.Config{
		ClientID:     stored.ClientID,
		ClientSecret: stored.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}, nil
}

func saveToken(path string, st *storedToken) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// savingTokenSource writes the token back whenever a refresh changed it
type savingTokenSource struct {
	base    oauth2.TokenSource
	path    string
	mu      sync.Mutex
	stored  storedToken
	current string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.current {
		s.current = tok.AccessToken
		s.stored.Token = tok.AccessToken
		s.stored.AccessToken = ""
		s.stored.Expiry = tok.Expiry
		if tok.RefreshToken != "" {
			s.stored.RefreshToken = tok.RefreshToken
		}
		if err := saveToken(s.path, &s.stored); err != nil {
			log.Printf("token refresh not saved: %v", err)
		}
	}
	return tok, nil
}

// Authenticate runs the installed-app OAuth flow with a loopback redirect
// and stores the resulting token in tokenFile. The consent URL is written
// to out.
func Authenticate(ctx context.Context, credentialsFile, tokenFile string, out io.Writer) error {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return apperr.New(apperr.KindAuth,
			"credentials.json not found at %s. Download it from Google Cloud Console and place it there.", credentialsFile)
	}
	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return apperr.Wrap(apperr.KindAuth, err, "invalid credentials file %s: %v", credentialsFile, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start callback listener: %w", err)
	}
	conf.RedirectURL = "http://" + listener.Addr().String() + "/"

	state := fmt.Sprintf("gdoc-%d", time.Now().UnixNano())
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			fmt.Fprintln(w, "Authorization failed. You can close this window.")
			errs <- apperr.New(apperr.KindAuth, "authorization failed: %s", e)
			return
		}
		fmt.Fprintln(w, "gdoc is authorized. You can close this window.")
		codes <- q.Get("code")
	})}
	go server.Serve(listener)
	defer server.Close()

	fmt.Fprintf(out, "Visit the URL below to authorize gdoc:\n\n%s\n\n", conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return apperr.Wrap(apperr.KindAuth, err, "token exchange failed: %v", err)
	}
	if tok.RefreshToken == "" {
		return errors.New("no refresh token received; revoke gdoc's access and try again")
	}

	st := &storedToken{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       Scopes,
		Expiry:       tok.Expiry,
	}
	if err := saveToken(tokenFile, st); err != nil {
		return err
	}
	fmt.Fprintf(out, "OK authenticated successfully. Credentials stored in %s\n", tokenFile)
	return nil
}
