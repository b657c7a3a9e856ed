package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/pix"
	"github.com/amirasaad/paygate/pkg/signature"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { color.NoColor = true }

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSign(t *testing.T) {
	out, err := execute(t, "sign", "secret", "123", "--request-id", "req-1", "--ts", "1704908010")
	require.NoError(t, err)

	want := signature.Sign("secret", "123", "req-1", "1704908010")
	assert.Equal(t, "x-signature: "+want+"\nx-request-id: req-1\n", out)
	assert.NoError(t, signature.New("secret", nil).VerifyResource("123", want, "req-1"))
}

func TestSign_DefaultsTimestampToNow(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Unix(1700000000, 0) }
	t.Cleanup(func() { now = orig })

	out, err := execute(t, "sign", "secret", "123")
	require.NoError(t, err)
	assert.Contains(t, out, "ts=1700000000,")
	assert.NotContains(t, out, "x-request-id")
}

func TestSign_RequiresArgs(t *testing.T) {
	_, err := execute(t, "sign", "secret")
	assert.Error(t, err)
}

func TestPixCreate_RejectsBadAmount(t *testing.T) {
	_, err := execute(t, "pix", "create", "--amount", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestPrintOutcome(t *testing.T) {
	var out bytes.Buffer
	printOutcome(&out, pix.Result{Outcome: pix.OutcomeApproved})
	printOutcome(&out, pix.Result{Outcome: pix.OutcomeExpired})
	assert.Equal(t, "✅ payment approved\n❌ payment expired\n", out.String())
}

func TestPrintInstallments(t *testing.T) {
	var out bytes.Buffer
	printInstallments(&out, nil)
	printInstallments(&out, []domain.InstallmentOption{{
		Count:                3,
		PerInstallmentAmount: decimal.RequireFromString("132.33"),
		TotalAmount:          decimal.RequireFromString("397.00"),
	}})
	assert.Equal(t, "no installment options\n 3x 132.33 = 397.00 (sem juros)\n", out.String())
}
