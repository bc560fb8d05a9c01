package models

import "fmt"

// Token holds a bearer access token returned by the authorization-code
// exchange. Tokens are immutable; re-authentication replaces the whole value.
// There is no refresh flow - when a token expires the user authenticates again.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthorizationHeader returns the value for the Authorization request header.
func (t *Token) AuthorizationHeader() string {
	return fmt.Sprintf("Bearer %s", t.AccessToken)
}
