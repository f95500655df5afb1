package auth

import "strings"

// Role is what a bearer token grants. The two roles see disjoint surfaces:
// Admin manages the MSME guidance corpus, Shop Owner runs a shop.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleShopOwner Role = "Shop Owner"
)

// Authenticator resolves bearer tokens against the static token sets from
// config. Tokens are opaque pre-shared strings; there is no expiry, signing,
// or user registry.
type Authenticator struct {
	adminToken string
	shopTokens map[string]bool
}

// NewAuthenticator takes the admin token and the comma-separated shop owner
// tokens as configured. Whitespace around shop tokens is ignored.
func NewAuthenticator(adminToken, shopTokensCSV string) *Authenticator {
	shopTokens := make(map[string]bool)
	for _, t := range strings.Split(shopTokensCSV, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			shopTokens[t] = true
		}
	}
	return &Authenticator{
		adminToken: adminToken,
		shopTokens: shopTokens,
	}
}

// Authenticate returns the role a token grants, or false for an unknown
// token.
func (a *Authenticator) Authenticate(token string) (Role, bool) {
	if token == a.adminToken {
		return RoleAdmin, true
	}
	if a.shopTokens[token] {
		return RoleShopOwner, true
	}
	return "", false
}
