package gsheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokensFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/tasks", "credentials.tokens"), Credentials{File: "/etc/tasks/credentials.json"}.TokensFile())
	assert.Equal(t, "/var/tasks/.google", Credentials{File: "/etc/tasks/credentials.json", Tokens: "/var/tasks/.google"}.TokensFile())
}

func TestSaveAndLoadToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "google", "credentials.tokens")
	token := oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Date(2024, time.January, 10, 9, 15, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(file, &token))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := tokenFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestIsServiceAccount(t *testing.T) {
	assert.True(t, isServiceAccount([]byte(`{"type":"service_account","project_id":"tasks"}`)))
	assert.False(t, isServiceAccount([]byte(`{"installed":{"client_id":"x"}}`)))
	assert.False(t, isServiceAccount([]byte(`not json`)))
}

func TestClientWithoutTokens(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials.json")
	secret := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

	require.NoError(t, os.WriteFile(credentials, []byte(secret), 0600))

	_, err := Client(context.Background(), Credentials{File: credentials}, SHEETS)
	assert.ErrorIs(t, err, ErrNotAuthorised)
}

func TestClientWithoutCredentials(t *testing.T) {
	_, err := Client(context.Background(), Credentials{}, SHEETS)
	assert.ErrorIs(t, err, ErrNotAuthorised)
}
