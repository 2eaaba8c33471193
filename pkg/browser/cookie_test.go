package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieJSONRoundTrip(t *testing.T) {
	cookies := []Cookie{
		{
			Name:     "sessionid",
			Value:    "abc123",
			Domain:   ".tiktok.com",
			Path:     "/",
			Expires:  1893456000,
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Lax",
		},
		{Name: "theme", Value: "dark", Domain: ".tiktok.com", Path: "/"},
	}

	raw, err := MarshalCookies(cookies)
	require.NoError(t, err)

	parsed, err := UnmarshalCookies(raw)
	require.NoError(t, err)
	assert.Equal(t, cookies, parsed)
}

func TestUnmarshalCookiesRejectsGarbage(t *testing.T) {
	parsed, err := UnmarshalCookies([]byte("{not json"))
	assert.Error(t, err)
	assert.Nil(t, parsed)
}

func TestFromPlaywright(t *testing.T) {
	sameSite := playwright.SameSiteAttributeStrict
	cookie := fromPlaywright(playwright.Cookie{
		Name:     "sessionid",
		Value:    "v",
		Domain:   ".instagram.com",
		Path:     "/",
		Expires:  42,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
	})

	assert.Equal(t, "sessionid", cookie.Name)
	assert.Equal(t, ".instagram.com", cookie.Domain)
	assert.Equal(t, float64(42), cookie.Expires)
	assert.True(t, cookie.HTTPOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "Strict", cookie.SameSite)
}

func TestToPlaywright(t *testing.T) {
	cookie := Cookie{
		Name:     "sessionid",
		Value:    "v",
		Domain:   ".instagram.com",
		Path:     "/",
		Expires:  42,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	}

	optional := cookie.toPlaywright()
	assert.Equal(t, "sessionid", optional.Name)
	require.NotNil(t, optional.Domain)
	assert.Equal(t, ".instagram.com", *optional.Domain)
	require.NotNil(t, optional.Expires)
	assert.Equal(t, float64(42), *optional.Expires)
	require.NotNil(t, optional.HttpOnly)
	assert.True(t, *optional.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, optional.SameSite)
}

func TestToPlaywrightOmitsZeroExpiry(t *testing.T) {
	optional := Cookie{Name: "n", Value: "v", Domain: "d", Path: "/"}.toPlaywright()
	assert.Nil(t, optional.Expires)
	assert.Nil(t, optional.SameSite)
}
