package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_RoundsPerCurrency(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("10.505"), CurrencyMXN)
	assert.Equal(t, "10.51", m.Amount.String())

	u := NewMoney(decimal.RequireFromString("1.12345678"), CurrencyUSDT)
	assert.Equal(t, "1.123457", u.Amount.String())
}

func TestMoney_ConvertMXNToUSDT(t *testing.T) {
	// 175,000 MXN at 17.50 MXN/USDT
	source := MXN(decimal.NewFromInt(175_000))

	target, err := source.Convert(CurrencyUSDT, decimal.RequireFromString("17.50"))
	require.NoError(t, err)

	assert.Equal(t, CurrencyUSDT, target.Currency)
	assert.True(t, target.Amount.Equal(decimal.NewFromInt(10_000)), target.Amount.String())
}

func TestMoney_Convert_Precision(t *testing.T) {
	// 100 MXN at 17.3 -> 5.780346820... USDT, kept to 6 digits
	source := MXN(decimal.NewFromInt(100))

	target, err := source.Convert(CurrencyUSDT, decimal.RequireFromString("17.3"))
	require.NoError(t, err)

	assert.Equal(t, "5.780347", target.Amount.String())
}

func TestMoney_ConvertUSDTToMXN(t *testing.T) {
	source := NewMoney(decimal.RequireFromString("2.5"), CurrencyUSDT)

	target, err := source.Convert(CurrencyMXN, decimal.RequireFromString("17.25"))
	require.NoError(t, err)

	assert.Equal(t, CurrencyMXN, target.Currency)
	assert.Equal(t, "43.13", target.Amount.StringFixed(2))
}

func TestMoney_ConvertRejectsNonPositiveRate(t *testing.T) {
	source := MXN(decimal.NewFromInt(100))

	for _, rate := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := source.Convert(CurrencyUSDT, rate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRate))
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "1500.00 MXN", MXN(decimal.NewFromInt(1500)).String())
	assert.Equal(t, "-3.500000 USDT", NewMoney(decimal.RequireFromString("3.5"), CurrencyUSDT).Neg().String())
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"17.5", "17.5", true},
		{"17.1234567", "17.123457", true},
		{"0.0000005", "0.000001", true},
		{"0.0000004", "", false},
		{"0", "", false},
		{"-1", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeRate(decimal.RequireFromString(tc.in))
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestMoney_StringUsesCurrencyScale(t *testing.T) {
	assert.Equal(t, "10.50 MXN", MXN(decimal.RequireFromString("10.5")).String())
	assert.Equal(t, "1.123457 USDT", NewMoney(decimal.RequireFromString("1.1234567"), CurrencyUSDT).String())
}
