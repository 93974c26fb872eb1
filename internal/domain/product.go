package domain

// Product is owned by the catalog; this service only provisions it and
// mutates AvailableQuantity under the cart reservation protocol.
// AvailableQuantity never goes negative.
type Product struct {
	Id                ProductId
	Name              string
	Price             Price
	AvailableQuantity int64
}
