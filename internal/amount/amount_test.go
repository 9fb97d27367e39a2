package amount_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

func TestFromU256String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		decimals int
		want     string
	}{
		{"1.5 at 18 decimals", "1500000000000000000", 18, "1.5"},
		{"whole token", "100000000000000000000", 18, "100"},
		{"zero", "0", 18, "0"},
		{"8-decimal token", "10000000", 8, "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, ok := new(big.Int).SetString(tt.value, 10)
			require.True(t, ok)

			got, err := amount.FromU256(v, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromU256RejectsNegative(t *testing.T) {
	t.Parallel()
	_, err := amount.FromU256(big.NewInt(-1), 18)
	require.ErrorIs(t, err, sigilerr.ErrConversionError)
}

func TestToU256RoundTrip(t *testing.T) {
	t.Parallel()
	v, _ := new(big.Int).SetString("1500000000000000000", 10)

	a, err := amount.FromU256(v, 18)
	require.NoError(t, err)

	back, err := amount.ToU256(a, 18)
	require.NoError(t, err)
	assert.Equal(t, v.String(), back.String())
}

func TestToU256RejectsPrecisionLoss(t *testing.T) {
	t.Parallel()
	a, err := amount.New(big.NewInt(12345), 5) // 0.12345
	require.NoError(t, err)

	_, err = amount.ToU256(a, 2) // only 2 decimals available on-chain
	require.ErrorIs(t, err, sigilerr.ErrConversionError)
}

func TestNewRejectsNegativeMantissa(t *testing.T) {
	t.Parallel()
	_, err := amount.New(big.NewInt(-1), 2)
	require.ErrorIs(t, err, sigilerr.ErrConversionError)
}

func TestStringTrimsTrailingZeros(t *testing.T) {
	t.Parallel()
	a, err := amount.New(big.NewInt(150000), 5) // 1.50000
	require.NoError(t, err)
	assert.Equal(t, "1.5", a.String())
}

func TestToU256RejectsOverflow(t *testing.T) {
	t.Parallel()
	huge, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	a, err := amount.New(huge, 0)
	require.NoError(t, err)

	_, err = amount.ToU256(a, 10)
	require.ErrorIs(t, err, sigilerr.ErrConversionError)
}
