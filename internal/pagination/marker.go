// Package pagination implements the cursor tokens used to resume vault listings.
//
// A listing page hands out a marker that points at the first item of the next page.
// The marker travels to clients in two layers: an inner "!"-joined token that embeds
// the item index and identifier, and an outer base64 JSON envelope ($skiptoken)
// understood by the vault client SDKs.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/allisson/volt/internal/errors"
)

// Marker collections.
const (
	// CollectionSecret is used by both the secret and the version listings;
	// version markers also carry the version id.
	CollectionSecret        = "secret"
	CollectionDeletedSecret = "deletedsecret"
)

const (
	markerSeparator     = "!"
	identifierSeparator = "/"
	markerPrefix        = "2!144!"
	// Legacy fields kept for wire compatibility, they carry no meaning.
	markerID   = "000028"
	markerDate = "9999-12-31T23:59:59.9999999Z"
)

// ErrInvalidMarker indicates a skip token or marker that could not be decoded.
var ErrInvalidMarker = errors.Wrap(errors.ErrInvalidInput, "invalid pagination marker")

// ItemIdentifier names the item a marker points at.
type ItemIdentifier struct {
	Collection string
	Name       string
	Version    string
}

// Marker is the decoded cursor. Index is the storage position of the item and
// Identifier names it; listings resume at the identifier, never at the index.
type Marker struct {
	Index      int64
	Identifier ItemIdentifier
}

// skipToken is the outer envelope exchanged with clients.
type skipToken struct {
	NextMarker     string `json:"NextMarker,omitempty"`
	TargetLocation int    `json:"TargetLocation"`
}

// EncodeMarker builds the inner marker token.
// Example: 000010!secret/ABC!000028!9999-12-31T23:59:59.9999999Z! encodes to
// 2!144!MDAwMDEwIXNlY3JldC9BQkMhMDAwMDI4ITk5OTktMTItMzFUMjM6NTk6NTkuOTk5OTk5OVoh.
func EncodeMarker(marker Marker) string {
	parts := []string{marker.Identifier.Collection, strings.ToUpper(marker.Identifier.Name)}
	if marker.Identifier.Version != "" {
		parts = append(parts, strings.ToUpper(marker.Identifier.Version))
	}

	raw := strings.Join([]string{
		fmt.Sprintf("%06d", marker.Index),
		strings.Join(parts, identifierSeparator),
		markerID,
		markerDate,
		"",
	}, markerSeparator)

	return markerPrefix + base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeMarker parses a token produced by EncodeMarker. The identifier is lower-cased.
func DecodeMarker(token string) (Marker, error) {
	segments := strings.Split(token, markerSeparator)
	encoded := segments[len(segments)-1]
	if encoded == "" {
		return Marker{}, ErrInvalidMarker
	}

	raw, err := decodeBase64(encoded)
	if err != nil {
		return Marker{}, ErrInvalidMarker
	}

	fields := strings.Split(string(raw), markerSeparator)
	if len(fields) < 2 {
		return Marker{}, ErrInvalidMarker
	}

	index, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || index < 0 {
		return Marker{}, ErrInvalidMarker
	}

	identifier := strings.Split(strings.ToLower(fields[1]), identifierSeparator)
	if len(identifier) < 2 || len(identifier) > 3 || identifier[0] == "" || identifier[1] == "" {
		return Marker{}, ErrInvalidMarker
	}

	marker := Marker{
		Index: index,
		Identifier: ItemIdentifier{
			Collection: identifier[0],
			Name:       identifier[1],
		},
	}
	if len(identifier) == 3 {
		marker.Identifier.Version = identifier[2]
	}

	return marker, nil
}

// WrapSkipToken wraps a marker token in the JSON envelope sent as $skiptoken.
func WrapSkipToken(token string) string {
	// Marshalling a struct of a string and an int cannot fail.
	body, _ := json.Marshal(skipToken{NextMarker: token})
	return base64.StdEncoding.EncodeToString(body)
}

// UnwrapSkipToken extracts the marker token from a $skiptoken envelope.
func UnwrapSkipToken(value string) (string, error) {
	body, err := decodeBase64(value)
	if err != nil {
		return "", ErrInvalidMarker
	}

	var token skipToken
	if err := json.Unmarshal(body, &token); err != nil {
		return "", ErrInvalidMarker
	}
	if token.NextMarker == "" {
		return "", ErrInvalidMarker
	}

	return token.NextMarker, nil
}

// ParseSkipToken unwraps and decodes a $skiptoken into a marker of the given collection.
func ParseSkipToken(value, collection string) (*Marker, error) {
	token, err := UnwrapSkipToken(value)
	if err != nil {
		return nil, err
	}

	marker, err := DecodeMarker(token)
	if err != nil {
		return nil, err
	}
	if marker.Identifier.Collection != collection {
		return nil, ErrInvalidMarker
	}

	return &marker, nil
}

// BuildSkipToken encodes a marker straight into the $skiptoken form.
func BuildSkipToken(marker Marker) string {
	return WrapSkipToken(EncodeMarker(marker))
}

// decodeBase64 accepts standard padding, "-" padding and unpadded input.
func decodeBase64(value string) ([]byte, error) {
	trimmed := strings.TrimRight(value, "=-")
	return base64.RawStdEncoding.DecodeString(trimmed)
}
