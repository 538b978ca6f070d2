// Package evidence turns stored evidence references into links a browser
// can open. Objects in Cloud Storage (gs://bucket/object) get short-lived
// V4 signed URLs; http(s) links pass through unchanged.
package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/nexxacraft/community-admin/internal/config"
)

var (
	ErrUnsupported   = errors.New("unsupported evidence reference")
	ErrNoSigner      = errors.New("evidence signing not configured")
	ErrMalformedLink = errors.New("malformed gs:// reference")
)

type Resolver struct {
	accessID   string
	privateKey []byte
	expiry     time.Duration
	now        func() time.Time
}

// NewResolver signs with the given service account and PEM key. An empty
// accessID leaves gs:// references unresolvable.
func NewResolver(accessID string, privateKey []byte, expiry time.Duration) *Resolver {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Resolver{accessID: accessID, privateKey: privateKey, expiry: expiry, now: time.Now}
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// FromConfig loads the signing key named by EVIDENCE_SIGNER_KEY_PATH. The
// file may be a service account JSON key or a bare PEM private key.
func FromConfig(cfg *config.Config) (*Resolver, error) {
	if cfg.EvidenceSignerKeyPath == "" {
		return NewResolver("", nil, cfg.EvidenceURLExpiry), nil
	}
	raw, err := os.ReadFile(cfg.EvidenceSignerKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read evidence signer key: %w", err)
	}

	accessID, key := cfg.EvidenceSignerEmail, raw
	var sa serviceAccountKey
	if json.Unmarshal(raw, &sa) == nil && sa.PrivateKey != "" {
		key = []byte(sa.PrivateKey)
		if accessID == "" {
			accessID = sa.ClientEmail
		}
	}
	if accessID == "" {
		return nil, errors.New("EVIDENCE_SIGNER_EMAIL is required with a PEM key")
	}
	return NewResolver(accessID, key, cfg.EvidenceURLExpiry), nil
}

func (r *Resolver) Link(_ context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	switch u.Scheme {
	case "http", "https":
		return raw, nil
	case "gs":
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}

	bucket, object := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return "", ErrMalformedLink
	}
	if r.accessID == "" || len(r.privateKey) == 0 {
		return "", ErrNoSigner
	}

	signed, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: r.accessID,
		PrivateKey:     r.privateKey,
		Method:         "GET",
		Expires:        r.now().Add(r.expiry),
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, object, err)
	}
	return signed, nil
}
