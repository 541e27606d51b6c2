// Package domain defines the bearer token authentication model of the vault endpoint.
package domain

import (
	"regexp"
	"strings"
)

// OAuthLevel selects how bearer tokens are checked.
type OAuthLevel string

const (
	// OAuthLevelNone accepts every request without a token.
	OAuthLevelNone OAuthLevel = "none"

	// OAuthLevelBasic decodes the token without verifying its signature and checks
	// its lifetime, issuer and audience.
	OAuthLevelBasic OAuthLevel = "basic"
)

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer"

// Challenge is sent in WWW-Authenticate on 401 responses so SDK clients can discover
// the authority and resource to request a token for.
const Challenge = `Bearer authorization="https://login.windows.net/72f988bf-86f1-41af-91ab-2d7cd011db47", ` +
	`resource="https://vault.azure.net"`

// ValidIssuerPrefixes lists the token issuers accepted by basic validation.
var ValidIssuerPrefixes = []string{
	"https://sts.windows.net/",
	"https://sts.microsoftonline.de/",
	"https://sts.chinacloudapi.cn/",
	"https://sts.windows-ppe.net",
}

// ValidAudiences matches the key vault resource audiences of every cloud.
var ValidAudiences = []*regexp.Regexp{
	regexp.MustCompile(`^https://vault\.azure\.net/?$`),
	regexp.MustCompile(`^https://vault\.azure\.cn/?$`),
	regexp.MustCompile(`^https://vault\.usgovcloudapi\.net/?$`),
	regexp.MustCompile(`^https://vault\.microsoftazure\.de/?$`),
	regexp.MustCompile(`^https://[a-z0-9-]+\.vault\.azure\.net/?$`),
	regexp.MustCompile(`^https://[a-z0-9-]+\.vault\.azure\.cn/?$`),
	regexp.MustCompile(`^https://[a-z0-9-]+\.vault\.usgovcloudapi\.net/?$`),
	regexp.MustCompile(`^https://[a-z0-9-]+\.vault\.microsoftazure\.de/?$`),
}

// IsValidIssuer reports whether iss starts with an accepted issuer prefix.
func IsValidIssuer(iss string) bool {
	for _, prefix := range ValidIssuerPrefixes {
		if strings.HasPrefix(iss, prefix) {
			return true
		}
	}
	return false
}

// IsValidAudience reports whether aud names the key vault resource.
func IsValidAudience(aud string) bool {
	for _, re := range ValidAudiences {
		if re.MatchString(aud) {
			return true
		}
	}
	return false
}
