package cart

// LineView is a cart line rendered for clients.
type LineView struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice string  `json:"unit_price"`
	Image     *string `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	Subtotal  string  `json:"subtotal"`
}

// View is the cart payload: lines in insertion order and the exact total.
type View struct {
	Lines     []LineView `json:"lines"`
	ItemCount int        `json:"item_count"`
	Total     string     `json:"total"`
}

// NewView renders c with two-decimal money strings.
func NewView(c Cart) View {
	lines := make([]LineView, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, LineView{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Image:     line.Image,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal().StringFixed(2),
		})
	}
	return View{
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Total:     c.Total().StringFixed(2),
	}
}
