// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

const (
	maxTags              = 15
	maxContentTypeLength = 255
)

// SecretAttributesRequest carries the caller supplied management attributes.
// Timestamps are unix seconds. Created, updated and the recovery fields are accepted
// and ignored since the vault owns them.
type SecretAttributesRequest struct {
	Enabled         *bool   `json:"enabled"`
	NotBefore       *int64  `json:"nbf"`
	Expires         *int64  `json:"exp"`
	Created         *int64  `json:"created,omitempty"`
	Updated         *int64  `json:"updated,omitempty"`
	RecoveryLevel   *string `json:"recoveryLevel,omitempty"`
	RecoverableDays *int    `json:"recoverableDays,omitempty"`
}

// Validate checks the caller supplied timestamps.
func (r *SecretAttributesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.NotBefore, validation.Min(int64(0))),
		validation.Field(&r.Expires, validation.Min(int64(0))),
	)
}

// SetSecretRequest is the body of PUT /secrets/{name}.
type SetSecretRequest struct {
	Value       *string                  `json:"value"`
	ContentType string                   `json:"contentType,omitempty"`
	Tags        map[string]string        `json:"tags,omitempty"`
	Attributes  *SecretAttributesRequest `json:"attributes,omitempty"`
}

// Validate checks that a value is present and the optional fields are within limits.
func (r *SetSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value, validation.NotNil.Error("is required")),
		validation.Field(&r.ContentType, validation.Length(0, maxContentTypeLength)),
		validation.Field(&r.Tags, validation.Length(0, maxTags)),
		validation.Field(&r.Attributes),
	)
}

// ToParams converts the request into use case parameters for the named secret.
func (r *SetSecretRequest) ToParams(name string) *secretsDomain.SetSecretParams {
	params := &secretsDomain.SetSecretParams{
		Name:        name,
		ContentType: r.ContentType,
		Tags:        r.Tags,
	}
	if r.Value != nil {
		params.Value = *r.Value
	}
	if r.Attributes != nil {
		params.Enabled = r.Attributes.Enabled
		params.NotBefore = fromUnix(r.Attributes.NotBefore)
		params.Expires = fromUnix(r.Attributes.Expires)
	}
	return params
}

// UpdateSecretRequest is the body of PATCH /secrets/{name}[/{version}].
// Absent fields keep their stored values.
type UpdateSecretRequest struct {
	ContentType *string                  `json:"contentType,omitempty"`
	Tags        map[string]string        `json:"tags,omitempty"`
	Attributes  *SecretAttributesRequest `json:"attributes,omitempty"`
}

// Validate checks the optional fields are within limits.
func (r *UpdateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContentType, validation.Length(0, maxContentTypeLength)),
		validation.Field(&r.Tags, validation.Length(0, maxTags)),
		validation.Field(&r.Attributes),
	)
}

// ToUpdate converts the request into a partial update of the given version.
func (r *UpdateSecretRequest) ToUpdate(name, version string) *secretsDomain.SecretUpdate {
	update := &secretsDomain.SecretUpdate{
		Name:        name,
		Version:     version,
		ContentType: r.ContentType,
		Tags:        r.Tags,
	}
	if r.Attributes != nil {
		update.Enabled = r.Attributes.Enabled
		update.NotBefore = fromUnix(r.Attributes.NotBefore)
		update.Expires = fromUnix(r.Attributes.Expires)
	}
	return update
}

func fromUnix(seconds *int64) *time.Time {
	if seconds == nil {
		return nil
	}
	t := time.Unix(*seconds, 0).UTC()
	return &t
}
