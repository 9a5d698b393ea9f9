package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/uhppoted/uhppoted-app-tasks/log"
)

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"
const DRIVE = "https://www.googleapis.com/auth/drive.metadata.readonly"

var ErrNotAuthorised = errors.New("not authorised")

// Credentials identifies the Google account used to access the spreadsheet. ServiceAccount takes
// precedence over File. File may hold either a service account key or an OAuth client secret, in
// which case Tokens is the file holding the authorised OAuth tokens.
type Credentials struct {
	File           string
	ServiceAccount map[string]any
	Tokens         string
}

// TokensFile returns the tokens file for an OAuth client secret, defaulting to '<name>.tokens'
// alongside the credentials file.
func (c Credentials) TokensFile() string {
	if c.Tokens != "" {
		return c.Tokens
	}

	dir, file := filepath.Split(c.File)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(dir, fmt.Sprintf("%s.tokens", name))
}

// Client returns an HTTP client authorised for the requested scopes.
func Client(ctx context.Context, credentials Credentials, scopes ...string) (*http.Client, error) {
	if len(credentials.ServiceAccount) > 0 {
		b, err := json.Marshal(credentials.ServiceAccount)
		if err != nil {
			return nil, fmt.Errorf("invalid service account (%v)", err)
		}

		return serviceAccount(ctx, b, scopes...)
	}

	if strings.TrimSpace(credentials.File) == "" {
		return nil, fmt.Errorf("%w: no credentials configured", ErrNotAuthorised)
	}

	b, err := os.ReadFile(credentials.File)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(b) {
		return serviceAccount(ctx, b, scopes...)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	tokens := credentials.TokensFile()
	token, err := tokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: no valid tokens in %v - run 'authorise' first", ErrNotAuthorised, tokens)
	}

	return config.Client(ctx, token), nil
}

// Authorise runs the OAuth2 consent flow for an OAuth client secret: it starts a callback
// listener on 'bind', prints the consent URL to 'out' and saves the returned tokens to the
// tokens file.
func Authorise(ctx context.Context, credentials Credentials, bind string, out io.Writer, scopes ...string) error {
	b, err := os.ReadFile(credentials.File)
	if err != nil {
		return err
	}

	if isServiceAccount(b) {
		return fmt.Errorf("%v is a service account key and does not need authorising", credentials.File)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	config.RedirectURL = fmt.Sprintf("http://%v/", listener.Addr())

	state := fmt.Sprintf("tasks-%v", time.Now().UnixNano())
	authorised := make(chan string, 1)
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		code := rq.FormValue("code")
		if rq.FormValue("state") != state || code == "" {
			http.Error(w, "invalid authorisation response", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorised - you can close this window")

		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnf("auth", "%v", err)
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Warnf("auth", "%v", err)
		}
	}()

	fmt.Fprintf(out, "Open the following link in your browser to authorise access to the spreadsheet:\n\n  %v\n\n", config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case <-ctx.Done():
		return ctx.Err()

	case code := <-authorised:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to retrieve token (%v)", err)
		}

		tokens := credentials.TokensFile()
		if err := saveToken(tokens, token); err != nil {
			return err
		}

		log.Infof("auth", "saved OAuth tokens to %v", tokens)
	}

	return nil
}

func serviceAccount(ctx context.Context, b []byte, scopes ...string) (*http.Client, error) {
	credentials, err := google.CredentialsFromJSON(ctx, b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid service account (%v)", err)
	}

	return oauth2.NewClient(ctx, credentials.TokenSource), nil
}

func isServiceAccount(b []byte) bool {
	var v struct {
		Type string `json:"type"`
	}

	return json.Unmarshal(b, &v) == nil && v.Type == "service_account"
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save OAuth tokens (%v)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
