package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/allisson/volt/internal/auth/domain"
)

// basicTokenValidator decodes tokens without verifying their signature.
type basicTokenValidator struct {
	parser *jwt.Parser
}

// NewBasicTokenValidator creates the validator used by OAuthLevelBasic.
func NewBasicTokenValidator() TokenValidator {
	return &basicTokenValidator{parser: jwt.NewParser()}
}

// Validate requires nbf, exp and iat, checks that now lies in nbf..exp, and
// matches the issuer prefix and the key vault audience.
func (v *basicTokenValidator) Validate(token string, now time.Time, requestID string) error {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		return authDomain.NewAuthenticationFailureError(requestID)
	}

	nbf, errNbf := claims.GetNotBefore()
	exp, errExp := claims.GetExpirationTime()
	iat, errIat := claims.GetIssuedAt()
	if errNbf != nil || errExp != nil || errIat != nil || nbf == nil || exp == nil || iat == nil {
		return authDomain.NewTokenValidationFailureError(requestID, "")
	}

	if now.Before(nbf.Time) {
		return authDomain.NewTokenValidationFailureError(requestID, "")
	}
	if now.After(exp.Time) {
		return authDomain.NewTokenValidationFailureError(requestID, authDomain.ExpiredValidationCode)
	}

	iss, err := claims.GetIssuer()
	if err != nil || !authDomain.IsValidIssuer(iss) {
		return authDomain.NewTokenValidationFailureError(requestID, "")
	}

	aud, err := claims.GetAudience()
	if err != nil || !anyValidAudience(aud) {
		return authDomain.NewTokenValidationFailureError(requestID, "")
	}

	return nil
}

func anyValidAudience(aud jwt.ClaimStrings) bool {
	for _, a := range aud {
		if authDomain.IsValidAudience(a) {
			return true
		}
	}
	return false
}
