// Package signature authenticates Mercado Pago webhook notifications.
//
// The processor sends an x-signature header of the form "ts=<unix>,v1=<hex>"
// and an x-request-id header. The digest is an HMAC-SHA256, keyed with the
// webhook secret, over the manifest
//
//	id:<data.id>;request-id:<x-request-id>;ts:<ts>;
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
)

const (
	keyTimestamp = "ts"
	keyDigest    = "v1"
)

// Verifier checks webhook signatures against a shared secret. A Verifier
// with an empty secret runs in degraded mode: every call is accepted and a
// warning is logged.
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithTolerance rejects signatures whose ts is further than d from now.
// Zero disables the check.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) { v.tolerance = d }
}

// WithClock overrides the time source used by the tolerance check.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// New creates a Verifier.
func New(secret string, logger *slog.Logger, opts ...Option) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Verifier{
		secret: secret,
		now:    time.Now,
		logger: logger.With("component", "signature-verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	if secret == "" {
		v.logger.Warn("⚠️ webhook secret not configured, signature verification is DISABLED")
	}
	return v
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool { return v.secret != "" }

// Verify authenticates rawBody. The resource id is read from the body's
// data.id field, and the body is authenticated only through that id: other
// bytes are not part of the signed manifest and may change freely.
func (v *Verifier) Verify(rawBody []byte, header, requestID string) error {
	if !v.Enabled() {
		v.logger.Warn("⚠️ skipping webhook signature verification (degraded mode)",
			"request_id", requestID)
		return nil
	}
	if strings.TrimSpace(header) == "" {
		return domain.NewSignatureError(domain.ErrSignatureMissing, "x-signature header absent")
	}
	resourceID, err := ResourceID(rawBody)
	if err != nil {
		return err
	}
	return v.verify(resourceID, header, requestID)
}

// VerifyResource authenticates a notification whose resource id was carried
// outside the body, e.g. the data.id query parameter.
func (v *Verifier) VerifyResource(resourceID, header, requestID string) error {
	if !v.Enabled() {
		v.logger.Warn("⚠️ skipping webhook signature verification (degraded mode)",
			"request_id", requestID)
		return nil
	}
	if strings.TrimSpace(header) == "" {
		return domain.NewSignatureError(domain.ErrSignatureMissing, "x-signature header absent")
	}
	if resourceID == "" {
		return domain.NewSignatureError(domain.ErrSignatureMalformed, "resource id is empty")
	}
	return v.verify(resourceID, header, requestID)
}

func (v *Verifier) verify(resourceID, header, requestID string) error {
	ts, digest, err := ParseHeader(header)
	if err != nil {
		return err
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return domain.NewSignatureError(domain.ErrSignatureMalformed, "v1 is not hex")
	}

	if v.tolerance > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return domain.NewSignatureError(domain.ErrSignatureMalformed, "ts is not numeric")
		}
		// The processor sends milliseconds on some notification versions.
		if sec > 1e12 {
			sec /= 1000
		}
		skew := v.now().Sub(time.Unix(sec, 0))
		if skew < -v.tolerance || skew > v.tolerance {
			return domain.NewSignatureError(domain.ErrSignatureMismatch, "ts outside tolerance")
		}
	}

	want := computeDigest(v.secret, Manifest(resourceID, requestID, ts))
	if !hmac.Equal(got, want) {
		return domain.NewSignatureError(domain.ErrSignatureMismatch, "")
	}
	return nil
}

// ParseHeader extracts ts and v1 from a "k=v,k=v" header.
func ParseHeader(header string) (ts, digest string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case keyTimestamp:
			ts = strings.TrimSpace(val)
		case keyDigest:
			digest = strings.TrimSpace(val)
		}
	}
	if ts == "" || digest == "" {
		return "", "", domain.NewSignatureError(
			domain.ErrSignatureMalformed,
			fmt.Sprintf("header must carry %s and %s", keyTimestamp, keyDigest),
		)
	}
	return ts, digest, nil
}

// Manifest builds the canonical string that is signed.
func Manifest(resourceID, requestID, ts string) string {
	var b strings.Builder
	b.WriteString("id:")
	b.WriteString(strings.ToLower(resourceID))
	b.WriteString(";")
	if requestID != "" {
		b.WriteString("request-id:")
		b.WriteString(requestID)
		b.WriteString(";")
	}
	b.WriteString("ts:")
	b.WriteString(ts)
	b.WriteString(";")
	return b.String()
}

// Sign produces a header value for the given inputs.
func Sign(secret, resourceID, requestID, ts string) string {
	digest := computeDigest(secret, Manifest(resourceID, requestID, ts))
	return keyTimestamp + "=" + ts + "," + keyDigest + "=" + hex.EncodeToString(digest)
}

func computeDigest(secret, manifest string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest)) //nolint:errcheck
	return mac.Sum(nil)
}

// ResourceID pulls data.id out of a webhook body. Numeric and string ids
// are both accepted.
func ResourceID(rawBody []byte) (string, error) {
	var body struct {
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return "", domain.NewSignatureError(domain.ErrSignatureMalformed, "body is not valid JSON")
	}
	raw := strings.TrimSpace(string(body.Data.ID))
	if raw == "" || raw == "null" {
		return "", domain.NewSignatureError(domain.ErrSignatureMalformed, "body has no data.id")
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	if raw == "" {
		return "", domain.NewSignatureError(domain.ErrSignatureMalformed, "body has no data.id")
	}
	return raw, nil
}
