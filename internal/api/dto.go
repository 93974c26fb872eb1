package api

import "time"

// Request DTOs

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type AddToCartRequest struct {
	ProductId int64 `json:"product_id" validate:"required"`
	Quantity  int64 `json:"quantity" validate:"required,min=1"`
}

type CreateProductRequest struct {
	Name              string `json:"name" validate:"required"`
	Price             int64  `json:"price" validate:"min=0"`
	AvailableQuantity int64  `json:"available_quantity" validate:"min=0"`
}

// Response DTOs

type RegisterResponse struct {
	Message       string `json:"message"`
	CodeDelivered bool   `json:"code_delivered"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	Id       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Verified bool   `json:"verified"`
}

type ProductResponse struct {
	Id                int64  `json:"id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	AvailableQuantity int64  `json:"available_quantity"`
}

type CartLineResponse struct {
	ProductId int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
}

type OrderResponse struct {
	Id         int64     `json:"id"`
	Reference  string    `json:"reference"`
	Username   string    `json:"username"`
	ProductIds []int64   `json:"product_ids"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}
