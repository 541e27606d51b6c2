package httputil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/requestctx"
)

const (
	// MaxResultsParam is the page size query parameter.
	MaxResultsParam = "maxresults"
	// SkipTokenParam is the continuation query parameter.
	SkipTokenParam = "$skiptoken"
	// APIVersionParam is the api version query parameter.
	APIVersionParam = "api-version"
)

// ParseMaxResults reads the maxresults query parameter. It returns nil when the parameter is
// absent; range checks are left to the use case.
func ParseMaxResults(c *gin.Context) (*int, error) {
	raw, ok := c.GetQuery(MaxResultsParam)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid %s parameter %q", MaxResultsParam, raw)
	}
	return &value, nil
}

// SkipToken reads the $skiptoken query parameter.
func SkipToken(c *gin.Context) string {
	return c.Query(SkipTokenParam)
}

// NextLink builds the URL that resumes a listing, or nil when skipToken is empty.
// The link is rooted at the request endpoint and repeats the api-version and maxresults
// the client sent.
func NextLink(c *gin.Context, skipToken string, maxResults *int) *string {
	if skipToken == "" {
		return nil
	}

	info, _ := requestctx.GetInfo(c.Request.Context())
	apiVersion := info.APIVersion
	if apiVersion == "" {
		apiVersion = c.Query(APIVersionParam)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(info.Endpoint, "/"))
	path := strings.TrimSuffix(c.Request.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	b.WriteString(path)
	fmt.Fprintf(&b, "?%s=%s&%s=%s",
		APIVersionParam, url.QueryEscape(apiVersion),
		SkipTokenParam, url.QueryEscape(skipToken),
	)
	if maxResults != nil {
		fmt.Fprintf(&b, "&%s=%d", MaxResultsParam, *maxResults)
	}

	link := b.String()
	return &link
}
