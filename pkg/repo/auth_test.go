package repo

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umd-lib/plastron-go/pkg/config"
)

func TestGetAuthenticatorPriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Repository
		want string
	}{
		{"bearer wins over everything", config.Repository{
			AuthToken: "tok", JWTSecret: "sec", ClientCert: "c", ClientKey: "k",
			FedoraUser: "u", FedoraPassword: "p",
		}, "*repo.BearerAuth"},
		{"jwt wins over cert and basic", config.Repository{
			JWTSecret: "sec", ClientCert: "c", ClientKey: "k", FedoraUser: "u", FedoraPassword: "p",
		}, "*repo.JWTSecretAuth"},
		{"cert wins over basic", config.Repository{
			ClientCert: "c", ClientKey: "k", FedoraUser: "u", FedoraPassword: "p",
		}, "*repo.ClientCertAuth"},
		{"basic is the fallback", config.Repository{
			FedoraUser: "u", FedoraPassword: "p",
		}, "*repo.BasicAuth"},
		{"none configured", config.Repository{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := GetAuthenticator(tc.cfg)

			if tc.want == "" {
				assert.Nil(t, auth)
				return
			}

			require.NotNil(t, auth)

			switch tc.want {
			case "*repo.BearerAuth":
				_, ok := auth.(*BearerAuth)
				assert.True(t, ok)
			case "*repo.JWTSecretAuth":
				_, ok := auth.(*JWTSecretAuth)
				assert.True(t, ok)
			case "*repo.ClientCertAuth":
				_, ok := auth.(*ClientCertAuth)
				assert.True(t, ok)
			case "*repo.BasicAuth":
				_, ok := auth.(*BasicAuth)
				assert.True(t, ok)
			}
		})
	}
}

func TestJWTSecretAuthMintsTokenWithOneHourExpiry(t *testing.T) {
	a := NewJWTSecretAuth("shared-secret")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tok, err := a.Token(now)
	require.NoError(t, err)
	assert.False(t, a.IsExpired(now))
	assert.Equal(t, now.Add(time.Hour), a.Expiry())

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (any, error) { return []byte("shared-secret"), nil })
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "plastron", claims["sub"])
	assert.Equal(t, "plastron", claims["iss"])
	assert.Equal(t, "fedoraAdmin", claims["role"])
}

func TestJWTSecretAuthExpiresAfterOneHourOneSecond(t *testing.T) {
	a := NewJWTSecretAuth("shared-secret")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := a.Token(now)
	require.NoError(t, err)

	assert.True(t, a.IsExpired(now.Add(time.Hour+time.Second)))
}

func TestJWTSecretAuthRefreshesWithinSixtySecondsOfExpiry(t *testing.T) {
	a := NewJWTSecretAuth("shared-secret")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first, err := a.Token(now)
	require.NoError(t, err)

	nearExpiry := now.Add(time.Hour - 30*time.Second)
	second, err := a.Token(nearExpiry)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, nearExpiry.Add(time.Hour), a.Expiry())
}

func TestBearerAuthSetsAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	auth := &BearerAuth{Token: "abc123"}
	require.NoError(t, auth.Apply(req))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
}
