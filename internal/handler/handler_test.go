package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shoply-dev/shoply/internal/domain"
	mw "github.com/shoply-dev/shoply/internal/middleware"
	"github.com/shoply-dev/shoply/internal/service"
)

// --- Shared test plumbing ---

func createRequest(t *testing.T, method, url string, body []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// asUser simulates the auth middleware for protected handlers.
func asUser(user *domain.User, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), mw.UserClaimsKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

var testUser = &domain.User{Id: 1, Email: "test@example.com", Username: "tester", Verified: true}
var testAdmin = &domain.User{Id: 2, Email: "admin@example.com", Username: "admin", Admin: true, Verified: true}

// --- Service mocks ---

type MockAuthService struct {
	RegisterFunc    func(email, username, password string) (service.RegistrationResult, error)
	VerifyEmailFunc func(email, code string) error
	ResendCodeFunc  func(email string) error
	LoginFunc       func(creds domain.Credentials) (string, error)
}

func (m *MockAuthService) Register(email, username, password string) (service.RegistrationResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(email, username, password)
	}
	return service.RegistrationResult{UserId: 1, CodeDelivered: true}, nil
}

func (m *MockAuthService) VerifyEmail(email, code string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(email, code)
	}
	return nil
}

func (m *MockAuthService) ResendCode(email string) error {
	if m.ResendCodeFunc != nil {
		return m.ResendCodeFunc(email)
	}
	return nil
}

func (m *MockAuthService) Login(creds domain.Credentials) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(creds)
	}
	return "test_token", nil
}

type MockAccountService struct {
	GetFunc           func(id domain.UserId) (domain.User, error)
	UpdateProfileFunc func(id domain.UserId, update service.ProfileUpdate) error
	DeleteFunc        func(id domain.UserId) error
}

func (m *MockAccountService) Get(id domain.UserId) (domain.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	return *testUser, nil
}

func (m *MockAccountService) UpdateProfile(id domain.UserId, update service.ProfileUpdate) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(id, update)
	}
	return nil
}

func (m *MockAccountService) Delete(id domain.UserId) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(id)
	}
	return nil
}

type MockCartService struct {
	AddFunc      func(userId domain.UserId, productId domain.ProductId, qty int64) (domain.Cart, error)
	IncreaseFunc func(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	DecreaseFunc func(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	RemoveFunc   func(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	GetFunc      func(userId domain.UserId) (domain.Cart, error)
}

func (m *MockCartService) Add(userId domain.UserId, productId domain.ProductId, qty int64) (domain.Cart, error) {
	if m.AddFunc != nil {
		return m.AddFunc(userId, productId, qty)
	}
	return domain.Cart{}, nil
}

func (m *MockCartService) Increase(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if m.IncreaseFunc != nil {
		return m.IncreaseFunc(userId, productId)
	}
	return domain.Cart{}, nil
}

func (m *MockCartService) Decrease(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if m.DecreaseFunc != nil {
		return m.DecreaseFunc(userId, productId)
	}
	return domain.Cart{}, nil
}

func (m *MockCartService) Remove(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(userId, productId)
	}
	return domain.Cart{}, nil
}

func (m *MockCartService) Get(userId domain.UserId) (domain.Cart, error) {
	if m.GetFunc != nil {
		return m.GetFunc(userId)
	}
	return domain.Cart{}, nil
}

type MockOrderService struct {
	PlaceFunc   func(userId domain.UserId) (domain.Order, error)
	HistoryFunc func(userId domain.UserId) ([]domain.Order, error)
}

func (m *MockOrderService) Place(userId domain.UserId) (domain.Order, error) {
	if m.PlaceFunc != nil {
		return m.PlaceFunc(userId)
	}
	return domain.Order{Id: 1, UserId: userId, Status: domain.OrderPending}, nil
}

func (m *MockOrderService) History(userId domain.UserId) ([]domain.Order, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(userId)
	}
	return nil, nil
}

type MockCatalogService struct {
	CreateFunc func(product domain.Product) (domain.ProductId, error)
	GetFunc    func(id domain.ProductId) (domain.Product, error)
	ListFunc   func() ([]domain.Product, error)
}

func (m *MockCatalogService) Create(product domain.Product) (domain.ProductId, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(product)
	}
	return 1, nil
}

func (m *MockCatalogService) Get(id domain.ProductId) (domain.Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	return domain.Product{Id: id, Name: "Mug", Price: 500, AvailableQuantity: 10}, nil
}

func (m *MockCatalogService) List() ([]domain.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return nil, nil
}
