package security

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"
)

const pngDataURLPrefix = "data:image/png;base64,"

// MaxSignatureBytes caps the decoded signature image
const MaxSignatureBytes = 2 << 20

// ErrInvalidSignature is returned for signatures that are not a PNG data URL
var ErrInvalidSignature = errors.New("invalid signature")

// SignatureInfo describes a verified handwritten signature image
type SignatureInfo struct {
	Image       []byte
	Width       int
	Height      int
	Fingerprint string
	SignedAt    time.Time
}

// Validator verifies signature images captured by the client
type Validator interface {
	ValidateSignature(ctx context.Context, dataURL string) (*SignatureInfo, error)
}

type pngValidator struct {
	now func() time.Time
}

// NewValidator creates a validator for PNG data URLs
func NewValidator() Validator {
	return &pngValidator{now: time.Now}
}

func (v *pngValidator) ValidateSignature(ctx context.Context, dataURL string) (*SignatureInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(strings.TrimSpace(dataURL), pngDataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: expected a PNG data URL", ErrInvalidSignature)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxSignatureBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidSignature, MaxSignatureBytes)
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidSignature)
	}

	return &SignatureInfo{
		Image:       image,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Fingerprint: Fingerprint(image),
		SignedAt:    v.now(),
	}, nil
}

// Fingerprint returns the hex SHA-256 of data
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
