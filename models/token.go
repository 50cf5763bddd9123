package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair carries the two credentials issued by the auth endpoints.
// The refresh token is optional in a refresh response; when absent the
// previously stored refresh token remains valid.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AccessTokenExpiry extracts the "exp" claim from an access token without
// verifying the signature. The client has no signing key; it only needs the
// deadline to schedule a proactive refresh. Returns the zero time if the
// token cannot be parsed or carries no expiry.
func AccessTokenExpiry(accessToken string) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// AccessTokenSubject extracts the "sub" claim (the user id) from an access
// token without verifying the signature. Returns an empty string if the
// token cannot be parsed.
func AccessTokenSubject(accessToken string) string {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
