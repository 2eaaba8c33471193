package browser

import (
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Cookie is one record of a captured credential set. It is the only
// form session credentials take outside the vault: captured from a
// live login, serialized to JSON, encrypted at rest, and injected back
// into fresh contexts on materialization.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// MarshalCookies serializes a credential set for encryption.
func MarshalCookies(cookies []Cookie) ([]byte, error) {
	raw, err := json.Marshal(cookies)
	if err != nil {
		return nil, fmt.Errorf("browser: marshal cookies: %w", err)
	}
	return raw, nil
}

// UnmarshalCookies parses a decrypted credential set.
func UnmarshalCookies(raw []byte) ([]Cookie, error) {
	var cookies []Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, fmt.Errorf("browser: unmarshal cookies: %w", err)
	}
	return cookies, nil
}

// fromPlaywright converts a cookie read out of a live context.
func fromPlaywright(c playwright.Cookie) Cookie {
	cookie := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
	}
	if c.SameSite != nil {
		cookie.SameSite = string(*c.SameSite)
	}
	return cookie
}

// toPlaywright converts a stored cookie for injection into a fresh
// context.
func (c Cookie) toPlaywright() playwright.OptionalCookie {
	optional := playwright.OptionalCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   playwright.String(c.Domain),
		Path:     playwright.String(c.Path),
		HttpOnly: playwright.Bool(c.HTTPOnly),
		Secure:   playwright.Bool(c.Secure),
	}
	if c.Expires != 0 {
		optional.Expires = playwright.Float(c.Expires)
	}
	switch c.SameSite {
	case "Strict":
		optional.SameSite = playwright.SameSiteAttributeStrict
	case "Lax":
		optional.SameSite = playwright.SameSiteAttributeLax
	case "None":
		optional.SameSite = playwright.SameSiteAttributeNone
	}
	return optional
}
