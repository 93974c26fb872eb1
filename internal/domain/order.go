package domain

import "time"

type OrderStatus string

const (
	OrderPending  OrderStatus = "Pending"
	OrderAccepted OrderStatus = "Accepted"
	OrderRejected OrderStatus = "Rejected"
)

// Order is the immutable record created by converting a cart into a pending
// purchase. Username is denormalized at creation time; ProductIds mirror the
// consumed cart lines in display order.
type Order struct {
	Id         OrderId
	Reference  string
	UserId     UserId
	Username   string
	ProductIds []ProductId
	TotalPrice Price
	Status     OrderStatus
	CreatedAt  time.Time
}
