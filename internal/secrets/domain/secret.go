// Package domain defines the core domain models and types for vault secrets.
// A secret is a named entity owning an append-only list of immutable versions.
// Names are unique case-insensitively within the live namespace; the casing of
// the first version ever stored is the one reported back to clients.
package domain

import (
	"crypto/md5" //nolint:gosec // version ids are content digests, not a security boundary
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxResultsCeiling is the largest page size accepted by the listing operations.
	MaxResultsCeiling = 25
	// MaxNameLength is the maximum length of a secret name.
	MaxNameLength = 127
)

var (
	// NamePattern matches valid secret names.
	NamePattern = regexp.MustCompile(`^[0-9a-zA-Z-]+$`)
	// VersionPattern matches version identifiers produced by NewVersionID.
	VersionPattern = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)
)

// Attributes holds the mutable management attributes of a secret version.
type Attributes struct {
	Enabled   bool
	Created   time.Time
	Updated   time.Time
	Expires   *time.Time
	NotBefore *time.Time
	// RecoveryLevel and RecoverableDays are computed from configuration and are never stored.
	RecoveryLevel   RecoveryLevel
	RecoverableDays int
}

// Secret is one version of a named secret.
type Secret struct {
	// Name is the display name, preserving the first-created casing.
	Name string
	// Version is the 32 character hex identifier of this version.
	Version     string
	Value       string
	ContentType string
	Tags        map[string]string
	Attributes  Attributes
	// Sequence is assigned by the store and orders versions that share a creation time.
	Sequence int64
	// ID is the resource identifier built by the use case from the request endpoint.
	ID string
}

// DeletionProperties are attached to a secret when it moves to the deleted namespace.
type DeletionProperties struct {
	DeletedDate        time.Time
	ScheduledPurgeDate time.Time
	RecoveryID         string
}

// ForName points RecoveryID at the stored name when the request addressed the secret
// with another casing.
func (p DeletionProperties) ForName(requested, stored string) DeletionProperties {
	if requested != stored && strings.HasSuffix(p.RecoveryID, "/"+requested) {
		p.RecoveryID = strings.TrimSuffix(p.RecoveryID, requested) + stored
	}
	return p
}

// DeletedSecret is the latest version of a secret parked in the deleted namespace.
type DeletedSecret struct {
	Secret
	DeletionProperties
}

// SecretUpdate describes a partial update of a secret version. Nil fields are retained.
type SecretUpdate struct {
	Name string
	// Version targets a specific version; empty targets the latest one.
	Version     string
	ContentType *string
	Tags        map[string]string
	Enabled     *bool
	Expires     *time.Time
	NotBefore   *time.Time
	// Updated is always applied.
	Updated time.Time
}

// SecretPage is a page of a secret or version listing.
type SecretPage struct {
	Secrets []*Secret
	// SkipToken resumes the listing; empty on the last page.
	SkipToken string
}

// DeletedSecretPage is a page of the deleted secret listing.
type DeletedSecretPage struct {
	DeletedSecrets []*DeletedSecret
	SkipToken      string
}

// NewVersionID derives the version identifier of a new secret version from its
// name, creation time and the id of the request that created it.
func NewVersionID(name string, created time.Time, requestID string) string {
	//nolint:gosec
	sum := md5.Sum([]byte(name + created.UTC().Format("2006-01-02T15:04:05.000Z07:00") + requestID))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the secret.
func (s *Secret) Clone() *Secret {
	clone := *s
	if s.Tags != nil {
		clone.Tags = make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			clone.Tags[k] = v
		}
	}
	if s.Attributes.Expires != nil {
		expires := *s.Attributes.Expires
		clone.Attributes.Expires = &expires
	}
	if s.Attributes.NotBefore != nil {
		notBefore := *s.Attributes.NotBefore
		clone.Attributes.NotBefore = &notBefore
	}
	return &clone
}

// IsNewerThan reports whether s was created after other, using Sequence as a tie-break.
func (s *Secret) IsNewerThan(other *Secret) bool {
	if !s.Attributes.Created.Equal(other.Attributes.Created) {
		return s.Attributes.Created.After(other.Attributes.Created)
	}
	return s.Sequence > other.Sequence
}

// Apply merges the non-nil fields of update into the secret.
// Created is never touched.
func (s *Secret) Apply(update *SecretUpdate) {
	if update.ContentType != nil {
		s.ContentType = *update.ContentType
	}
	if update.Tags != nil {
		s.Tags = make(map[string]string, len(update.Tags))
		for k, v := range update.Tags {
			s.Tags[k] = v
		}
	}
	if update.Enabled != nil {
		s.Attributes.Enabled = *update.Enabled
	}
	if update.Expires != nil {
		expires := *update.Expires
		s.Attributes.Expires = &expires
	}
	if update.NotBefore != nil {
		notBefore := *update.NotBefore
		s.Attributes.NotBefore = &notBefore
	}
	s.Attributes.Updated = update.Updated
}

// SetSecretParams holds the caller supplied fields of a new secret version.
type SetSecretParams struct {
	Name        string
	Value       string
	ContentType string
	Tags        map[string]string
	// Enabled defaults to true when nil.
	Enabled   *bool
	Expires   *time.Time
	NotBefore *time.Time
}
