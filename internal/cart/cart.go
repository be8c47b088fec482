package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units a single cart line can hold.
const MaxLineQuantity = 10_000

// Line is one cart entry. Name, UnitPrice and Image are captured when the
// product is first added and never refreshed.
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     *string         `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines with at most one line per product.
type Cart struct {
	Lines []Line `json:"lines"`
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total sums every line subtotal exactly.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount is the sum of all quantities.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Add appends line, or increases the quantity of the existing line for the
// same product. Quantities are kept within 1..MaxLineQuantity.
func (c Cart) Add(line Line) Cart {
	line.Quantity = clampQuantity(line.Quantity)
	out := c.clone()
	for i := range out.Lines {
		if out.Lines[i].ProductID == line.ProductID {
			current := clampQuantity(out.Lines[i].Quantity)
			if line.Quantity > MaxLineQuantity-current {
				out.Lines[i].Quantity = MaxLineQuantity
			} else {
				out.Lines[i].Quantity = current + line.Quantity
			}
			return out
		}
	}
	out.Lines = append(out.Lines, line)
	return out
}

// Remove drops the line for productID when all is set; otherwise it
// decrements by one and drops the line at zero. Other lines keep their order.
func (c Cart) Remove(productID uint, all bool) Cart {
	out := Cart{Lines: make([]Line, 0, len(c.Lines))}
	for _, line := range c.Lines {
		if line.ProductID != productID {
			out.Lines = append(out.Lines, line)
			continue
		}
		if all || line.Quantity <= 1 {
			continue
		}
		line.Quantity--
		out.Lines = append(out.Lines, line)
	}
	return out
}

// Validate rejects lines whose quantity falls outside 1..MaxLineQuantity.
// Carts built through Add always pass; a stored blob may not.
func (c Cart) Validate() error {
	for _, line := range c.Lines {
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return fmt.Errorf("product %d: quantity %d out of range", line.ProductID, line.Quantity)
		}
	}
	return nil
}

func (c Cart) clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

func clampQuantity(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > MaxLineQuantity:
		return MaxLineQuantity
	}
	return qty
}

// ParseQuantity coerces raw input into 1..MaxLineQuantity. Unparseable input
// becomes 1; out-of-range numbers saturate.
func ParseQuantity(raw string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(strings.TrimSpace(raw), "-") {
			return MaxLineQuantity
		}
		return 1
	}
	return clampQuantity(qty)
}
