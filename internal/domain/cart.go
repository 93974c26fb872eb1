package domain

// CartLine is one (product, quantity) reservation in a user's cart.
// Quantity is always positive; a line that would reach zero is deleted.
// At most one line exists per (user, product) pair.
type CartLine struct {
	ProductId ProductId
	Name      string
	Price     Price
	Quantity  int64
}

// Cart is an ordered projection of a user's lines, insertion order first.
type Cart struct {
	Lines []CartLine
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
