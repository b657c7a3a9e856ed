package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"approved", StatusApproved},
		{"APPROVED", StatusApproved},
		{"in_process", StatusPending},
		{"authorized", StatusPending},
		{"canceled", StatusCancelled},
		{"charged_back", StatusRefunded},
		{" rejected ", StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStatus("teleported")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPending, StatusRejected))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusApproved, StatusRefunded))
	assert.True(t, CanTransition(StatusApproved, StatusApproved))

	assert.False(t, CanTransition(StatusPending, StatusRefunded))
	assert.False(t, CanTransition(StatusRejected, StatusApproved))
	assert.False(t, CanTransition(StatusRefunded, StatusApproved))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
}

func TestPriorStatuses(t *testing.T) {
	assert.Equal(t, []Status{StatusPending}, PriorStatuses(StatusPending))
	assert.Equal(t, []Status{StatusPending, StatusApproved}, PriorStatuses(StatusApproved))
	assert.Equal(t, []Status{StatusApproved, StatusRefunded}, PriorStatuses(StatusRefunded))
	assert.Empty(t, PriorStatuses(Status("weird")))
}

func TestStatusTerminality(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	for _, s := range []Status{StatusApproved, StatusRejected, StatusCancelled, StatusRefunded} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.True(t, StatusApproved.MayTransition())
	assert.False(t, StatusRejected.MayTransition())
	assert.False(t, Status("weird").Valid())
}

func TestPixChargeExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &PixCharge{Status: StatusPending, ExpiresAt: now.Add(30 * time.Minute)}

	assert.False(t, c.Expired(now))
	assert.False(t, c.Expired(now.Add(29*time.Minute)))
	assert.True(t, c.Expired(now.Add(30*time.Minute)))

	c.Status = StatusApproved
	assert.False(t, c.Expired(now.Add(time.Hour)))
}

func TestValidationErrors(t *testing.T) {
	var v ValidationErrors
	require.NoError(t, v.Err())

	v.Add("cpf", "CPF deve ter 11 dígitos")
	err := v.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "cpf")
}

func TestErrorUnwrapping(t *testing.T) {
	sig := NewSignatureError(ErrSignatureMismatch, "v1 differs")
	assert.True(t, errors.Is(sig, ErrSignatureMismatch))

	netErr := &NetworkError{Op: "get payment", Err: errors.New("dial tcp: refused")}
	co := &CheckoutError{Cause: netErr}
	var target *NetworkError
	assert.True(t, errors.As(co, &target))
	assert.Equal(t, "get payment", target.Op)
}
