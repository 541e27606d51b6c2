package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/volt/internal/crypto/domain"
)

// KeeperSchemes are the STORE_KMS_KEY_URI schemes with a registered driver.
var KeeperSchemes = []string{"base64key", "hashivault", "awskms", "gcpkms", "azurekeyvault"}

// KMSService opens the keeper wrapping snapshot data keys.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper rejects URIs whose scheme has no driver before handing them to gocloud, so a
// typo in STORE_KMS_KEY_URI fails with the list of accepted schemes.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	u, err := url.Parse(keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cryptoDomain.ErrInvalidKeyURI, err)
	}
	if !slices.Contains(KeeperSchemes, u.Scheme) {
		return nil, fmt.Errorf("%w: scheme %q is not one of %v", cryptoDomain.ErrInvalidKeyURI, u.Scheme, KeeperSchemes)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s keeper: %w", u.Scheme, err)
	}
	return keeper, nil
}
