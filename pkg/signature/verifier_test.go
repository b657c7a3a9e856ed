package signature

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "whsec_test_secret"
	testRequestID = "bb56a2f1-6aae-46ac-982e-9dcd3581d08e"
	testTS        = "1742505638683"
)

var testBody = []byte(`{"type":"payment","action":"payment.updated","user_id":"99","date_created":"2026-03-20T12:00:00Z","data":{"id":"123456"}}`)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	v := New(testSecret, quietLogger())
	header := Sign(testSecret, "123456", testRequestID, testTS)

	require.NoError(t, v.Verify(testBody, header, testRequestID))
}

func TestVerify_NumericResourceID(t *testing.T) {
	v := New(testSecret, quietLogger())
	body := []byte(`{"type":"payment","data":{"id":98765}}`)
	header := Sign(testSecret, "98765", testRequestID, testTS)

	require.NoError(t, v.Verify(body, header, testRequestID))
}

func TestVerify_HeaderWhitespaceTolerated(t *testing.T) {
	v := New(testSecret, quietLogger())
	header := Sign(testSecret, "123456", testRequestID, testTS)
	header = strings.Replace(header, ",", " , ", 1)

	require.NoError(t, v.Verify(testBody, header, testRequestID))
}

func TestVerify_SingleByteMutationsFail(t *testing.T) {
	v := New(testSecret, quietLogger())
	header := Sign(testSecret, "123456", testRequestID, testTS)

	t.Run("resource id in body", func(t *testing.T) {
		for i := range "123456" {
			mutated := []byte("123456")
			mutated[i] = '9'
			if string(mutated) == "123456" {
				mutated[i] = '0'
			}
			body := bytes.Replace(testBody, []byte("123456"), mutated, 1)
			err := v.Verify(body, header, testRequestID)
			require.Error(t, err, "mutation at %d accepted", i)
			assert.True(t, errors.Is(err, domain.ErrSignatureMismatch))
		}
	})

	t.Run("request id", func(t *testing.T) {
		for i := range testRequestID {
			mutated := []byte(testRequestID)
			mutated[i] ^= 0x01
			err := v.Verify(testBody, header, string(mutated))
			require.Error(t, err, "mutation at %d accepted", i)
			assert.True(t, errors.Is(err, domain.ErrSignatureMismatch))
		}
	})

	t.Run("timestamp", func(t *testing.T) {
		for i := range testTS {
			mutated := []byte(testTS)
			mutated[i] ^= 0x01
			bad := strings.Replace(header, "ts="+testTS, "ts="+string(mutated), 1)
			err := v.Verify(testBody, bad, testRequestID)
			require.Error(t, err, "mutation at %d accepted", i)
			assert.True(t, errors.Is(err, domain.ErrSignatureMismatch))
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := Sign("another-secret", "123456", testRequestID, testTS)
		err := v.Verify(testBody, other, testRequestID)
		assert.True(t, errors.Is(err, domain.ErrSignatureMismatch))
	})
}

func TestVerify_BodyAuthenticatedOnlyThroughResourceID(t *testing.T) {
	v := New(testSecret, quietLogger())
	header := Sign(testSecret, "123456", testRequestID, testTS)

	body := bytes.Replace(testBody, []byte(`"user_id":"99"`), []byte(`"user_id":"98"`), 1)
	require.NotEqual(t, testBody, body)
	assert.NoError(t, v.Verify(body, header, testRequestID))
}

func TestVerify_Failures(t *testing.T) {
	v := New(testSecret, quietLogger())

	tests := []struct {
		name   string
		body   []byte
		header string
		want   error
	}{
		{"missing header", testBody, "", domain.ErrSignatureMissing},
		{"blank header", testBody, "   ", domain.ErrSignatureMissing},
		{"no v1", testBody, "ts=" + testTS, domain.ErrSignatureMalformed},
		{"no ts", testBody, "v1=abcdef", domain.ErrSignatureMalformed},
		{"garbage", testBody, "nonsense", domain.ErrSignatureMalformed},
		{"v1 not hex", testBody, "ts=" + testTS + ",v1=zzzz", domain.ErrSignatureMalformed},
		{"body without data.id", []byte(`{"type":"payment"}`), "ts=1,v1=ab", domain.ErrSignatureMalformed},
		{"body not json", []byte(`nope`), "ts=1,v1=ab", domain.ErrSignatureMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.body, tt.header, testRequestID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			var sigErr *domain.SignatureError
			assert.True(t, errors.As(err, &sigErr))
		})
	}
}

func TestVerify_DegradedModeLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	v := New("", logger)
	assert.False(t, v.Enabled())
	assert.Contains(t, buf.String(), "DISABLED")

	buf.Reset()
	require.NoError(t, v.Verify(testBody, "", testRequestID))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "degraded mode")
}

func TestVerify_Tolerance(t *testing.T) {
	now := time.Unix(1742505638, 0)
	v := New(testSecret, quietLogger(),
		WithTolerance(5*time.Minute),
		WithClock(func() time.Time { return now }),
	)

	fresh := Sign(testSecret, "123456", testRequestID, "1742505638683")
	require.NoError(t, v.Verify(testBody, fresh, testRequestID))

	stale := Sign(testSecret, "123456", testRequestID, "1742500000")
	err := v.Verify(testBody, stale, testRequestID)
	assert.True(t, errors.Is(err, domain.ErrSignatureMismatch))
}

func TestVerifyResource(t *testing.T) {
	v := New(testSecret, quietLogger())
	header := Sign(testSecret, "ABC123", testRequestID, testTS)

	require.NoError(t, v.VerifyResource("abc123", header, testRequestID))
	err := v.VerifyResource("", header, testRequestID)
	assert.True(t, errors.Is(err, domain.ErrSignatureMalformed))
}

func TestManifest(t *testing.T) {
	assert.Equal(t, "id:123;request-id:req;ts:42;", Manifest("123", "req", "42"))
	assert.Equal(t, "id:123;ts:42;", Manifest("123", "", "42"))
}
