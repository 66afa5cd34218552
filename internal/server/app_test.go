package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = "sqlite::memory:"
	c.SecretKey = "app-secret"
	return c
}

func TestNewApp_WiresServices(t *testing.T) {
	var buf bytes.Buffer
	orig := logOutput
	logOutput = &buf
	t.Cleanup(func() { logOutput = orig })

	ctx := context.Background()
	app, err := NewApp(ctx, testConfig())
	require.NoError(t, err)
	defer app.Close()

	u, err := app.Accounts.Register(ctx, services.RegisterInput{EmailAddr: "a@x.com", Username: "alice", Password: "pw"})
	require.NoError(t, err)

	tok, err := app.Accounts.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	claims, err := app.Accounts.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	require.NoError(t, app.Profiles.SetProfilePicture(ctx, u.ID, []byte("gif")))

	assert.Contains(t, buf.String(), `"module":"accounts"`)
	assert.NotNil(t, app.Logger())
}

func TestNewApp_RequiresSecret(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, common.ErrEmptySecret)
}

func TestNewApp_BadDSN(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = "mysql://nope"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "db init error")
}
