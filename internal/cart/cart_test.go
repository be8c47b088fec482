package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id uint, price string, qty int) Line {
	return Line{ProductID: id, Name: "p", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestTotalSumsSnapshots(t *testing.T) {
	c := Cart{}.Add(line(1, "10.00", 2)).Add(line(2, "5.00", 1))
	assert.Equal(t, "25.00", c.Total().StringFixed(2))
	assert.Equal(t, 3, c.ItemCount())
}

func TestTotalIsExactForDecimalPrices(t *testing.T) {
	c := Cart{}
	for i := 0; i < 10; i++ {
		c = c.Add(line(1, "0.10", 1))
	}
	assert.True(t, c.Total().Equal(decimal.NewFromInt(1)))
}

func TestAddAccumulatesOnOneLine(t *testing.T) {
	c := Cart{}.Add(line(7, "3.00", 1)).Add(line(7, "3.00", 4))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAddKeepsOriginalSnapshot(t *testing.T) {
	c := Cart{}.Add(line(7, "3.00", 1))
	c = c.Add(Line{ProductID: 7, Name: "renamed", UnitPrice: decimal.NewFromInt(99), Quantity: 1})
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "p", c.Lines[0].Name)
	assert.Equal(t, "3.00", c.Lines[0].UnitPrice.StringFixed(2))
}

func TestAddClampsQuantity(t *testing.T) {
	c := Cart{}.Add(line(1, "1.00", 0)).Add(line(2, "1.00", -3))
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 1, c.Lines[1].Quantity)
}

func TestAddDoesNotMutateReceiver(t *testing.T) {
	base := Cart{}.Add(line(1, "1.00", 1))
	_ = base.Add(line(1, "1.00", 5))
	assert.Equal(t, 1, base.Lines[0].Quantity)
}

func TestRemoveDecrementsThenDrops(t *testing.T) {
	c := Cart{}.Add(line(1, "1.00", 2)).Add(line(2, "2.00", 1)).Add(line(3, "3.00", 1))

	c = c.Remove(1, false)
	require.Len(t, c.Lines, 3)
	assert.Equal(t, 1, c.Lines[0].Quantity)

	c = c.Remove(1, false)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, uint(2), c.Lines[0].ProductID)
	assert.Equal(t, uint(3), c.Lines[1].ProductID)
}

func TestRemoveAllDropsWholeLine(t *testing.T) {
	c := Cart{}.Add(line(1, "1.00", 9)).Add(line(2, "2.00", 1))
	c = c.Remove(1, true)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, uint(2), c.Lines[0].ProductID)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	c := Cart{}.Add(line(1, "1.00", 2))
	c = c.Remove(42, true)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-4", 1},
		{"3", 3},
		{" 12", 12},
		{"2.5", 1},
		{"10000", MaxLineQuantity},
		{"10001", MaxLineQuantity},
		{"9223372036854775807", MaxLineQuantity},
		{"9223372036854775808", MaxLineQuantity},
		{"-9223372036854775809", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseQuantity(tc.raw), "input %q", tc.raw)
	}
}

func TestAddSaturatesAtMaxQuantity(t *testing.T) {
	c := Cart{}.Add(line(1, "10.00", ParseQuantity("9223372036854775807")))
	c = c.Add(line(1, "10.00", 1))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)
	assert.True(t, c.Total().IsPositive())
	assert.NoError(t, c.Validate())

	c = c.Add(line(1, "10.00", MaxLineQuantity))
	assert.Equal(t, MaxLineQuantity, c.Lines[0].Quantity)
}

func TestAddRepairsStoredOverflow(t *testing.T) {
	stored := Cart{Lines: []Line{line(1, "1.00", -5)}}
	require.Error(t, stored.Validate())

	c := stored.Add(line(1, "1.00", 2))
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.NoError(t, c.Validate())
}
