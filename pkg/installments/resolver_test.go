package installments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFunc func(ctx context.Context, amount decimal.Decimal, bin, pmID string) ([]domain.InstallmentOption, error)

func (f providerFunc) Installments(
	ctx context.Context,
	amount decimal.Decimal,
	bin string,
	paymentMethodID string,
) ([]domain.InstallmentOption, error) {
	return f(ctx, amount, bin, paymentMethodID)
}

func single(amount decimal.Decimal) []domain.InstallmentOption {
	return []domain.InstallmentOption{{
		Count:                1,
		PerInstallmentAmount: amount,
		TotalAmount:          amount,
		RecommendedLabel:     "1 parcela de R$ 397,00",
	}}
}

func TestGetInstallments_UsesFirstSixDigits(t *testing.T) {
	var gotBIN, gotPM string
	r := NewResolver(providerFunc(func(_ context.Context, amount decimal.Decimal, bin, pmID string) ([]domain.InstallmentOption, error) {
		gotBIN, gotPM = bin, pmID
		return single(amount), nil
	}), nil)

	amount := decimal.RequireFromString("397.00")
	opts := r.GetInstallments(context.Background(), amount, "4111 1111 1111 1111", "visa")
	require.Len(t, opts, 1)
	assert.Equal(t, "411111", gotBIN)
	assert.Equal(t, "visa", gotPM)
	assert.Equal(t, 1, opts[0].Count)
	assert.True(t, opts[0].PerInstallmentAmount.Equal(amount))
	assert.False(t, opts[0].HasInterest)
}

func TestGetInstallments_EmptyWithoutCallingProvider(t *testing.T) {
	called := false
	r := NewResolver(providerFunc(func(context.Context, decimal.Decimal, string, string) ([]domain.InstallmentOption, error) {
		called = true
		return nil, nil
	}), nil)

	assert.Empty(t, r.GetInstallments(context.Background(), decimal.NewFromInt(100), "41111", ""))
	assert.Empty(t, r.GetInstallments(context.Background(), decimal.Zero, "411111", ""))
	assert.False(t, called)
}

func TestGetInstallments_ErrorYieldsEmptyList(t *testing.T) {
	r := NewResolver(providerFunc(func(context.Context, decimal.Decimal, string, string) ([]domain.InstallmentOption, error) {
		return nil, &domain.ProviderAPIError{Provider: "mercadopago", StatusCode: 500}
	}), nil)

	opts := r.GetInstallments(context.Background(), decimal.NewFromInt(397), "411111", "")
	require.NotNil(t, opts)
	assert.Empty(t, opts)
}

func TestNormalizeBIN(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"411111", "411111", true},
		{"5031 4332 1540 6351", "503143", true},
		{"4111-1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeBIN(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

type delivery struct {
	bin  string
	opts []domain.InstallmentOption
}

func TestWatcher_DeliversOnlyNewest(t *testing.T) {
	release := make(chan struct{})
	r := NewResolver(providerFunc(func(ctx context.Context, amount decimal.Decimal, bin, _ string) ([]domain.InstallmentOption, error) {
		if bin == "411111" {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return single(amount), nil
	}), nil)

	var mu sync.Mutex
	var got []delivery
	done := make(chan struct{}, 2)
	w := NewWatcher(r, decimal.NewFromInt(397), "", func(bin string, opts []domain.InstallmentOption) {
		mu.Lock()
		got = append(got, delivery{bin, opts})
		mu.Unlock()
		done <- struct{}{}
	})

	w.OnBINChange("411111")
	w.OnBINChange("503143")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
	}
	close(release)
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "503143", got[0].bin)
	assert.Len(t, got[0].opts, 1)
}

func TestWatcher_ShortInputCancelsPending(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	r := NewResolver(providerFunc(func(ctx context.Context, _ decimal.Decimal, _, _ string) ([]domain.InstallmentOption, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, errors.New("cancelled")
	}), nil)

	delivered := false
	w := NewWatcher(r, decimal.NewFromInt(10), "", func(string, []domain.InstallmentOption) {
		delivered = true
	})
	w.OnBINChange("411111")
	<-started
	w.OnBINChange("4111")

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("lookup was not cancelled")
	}
	w.Close()
	assert.False(t, delivered)
}

func TestWatcher_CloseStopsDelivery(t *testing.T) {
	r := NewResolver(providerFunc(func(ctx context.Context, _ decimal.Decimal, _, _ string) ([]domain.InstallmentOption, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil)

	delivered := false
	w := NewWatcher(r, decimal.NewFromInt(10), "", func(string, []domain.InstallmentOption) {
		delivered = true
	})
	w.OnBINChange("411111")
	w.Close()
	w.OnBINChange("503143")
	assert.False(t, delivered)
}
