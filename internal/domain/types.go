package domain

type (
	Email    = string
	Password = string
	UserId   = int64

	ProductId = int64
	OrderId   = int64

	// Price is expressed in whole currency units, no fractions.
	Price = int64
)
