// Package memory is an in-memory implementation of the storage layer, used
// for local development and fast concurrency tests.
//
// Locking mirrors the Postgres row-lock discipline: a per-(user, product)
// mutex serializes the read-validate-write sequence of cart mutations on the
// same pair, a per-user RWMutex lets mutations on one account run
// concurrently (RLock) while checkout excludes them all (Lock), and the
// short-lived data mutex makes each individual counter update atomic.
// Operations on different pairs never share a lock.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
)

type cartState struct {
	order []domain.ProductId // insertion order for display
	lines map[domain.ProductId]int64
}

type Storage struct {
	mu         sync.RWMutex // guards the maps and counters below
	users      map[domain.UserId]domain.User
	emails     map[domain.Email]domain.UserId
	challenges map[domain.Email]domain.VerificationChallenge
	products   map[domain.ProductId]domain.Product
	carts      map[domain.UserId]*cartState
	orders     map[domain.UserId][]domain.Order
	nextUser   domain.UserId
	nextProd   domain.ProductId
	nextOrder  domain.OrderId

	pairLocks keyedLocks               // serializes same-(user, product) mutations
	userMu    sync.Mutex               // guards userLocks
	userLocks map[domain.UserId]*sync.RWMutex
}

func New() *Storage {
	return &Storage{
		users:      make(map[domain.UserId]domain.User),
		emails:     make(map[domain.Email]domain.UserId),
		challenges: make(map[domain.Email]domain.VerificationChallenge),
		products:   make(map[domain.ProductId]domain.Product),
		carts:      make(map[domain.UserId]*cartState),
		orders:     make(map[domain.UserId][]domain.Order),
		userLocks:  make(map[domain.UserId]*sync.RWMutex),
	}
}

func (s *Storage) Cleanup() error { return nil }

func (s *Storage) Ping(ctx context.Context) error { return nil }

func (s *Storage) userLock(userId domain.UserId) *sync.RWMutex {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	l, ok := s.userLocks[userId]
	if !ok {
		l = &sync.RWMutex{}
		s.userLocks[userId] = l
	}
	return l
}

// =========================================================================
// Auth
// =========================================================================

func (s *Storage) SaveUser(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[user.Email]; exists {
		return -1, &internal_errors.ErrorWithStatusCode{
			Kind:       internal_errors.KindConflict,
			Message:    "User already exists",
			StatusCode: http.StatusBadRequest,
		}
	}
	s.nextUser++
	user.Id = s.nextUser
	s.users[user.Id] = user
	s.emails[user.Email] = user.Id
	s.challenges[challenge.Email] = challenge
	return user.Id, nil
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	return s.users[id], nil
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	return user, nil
}

func (s *Storage) UpdateUsername(id domain.UserId, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return internal_errors.NotFound("User not found")
	}
	user.Username = username
	s.users[id] = user
	orders := s.orders[id]
	for i := range orders {
		orders[i].Username = username
	}
	return nil
}

func (s *Storage) UpdatePassword(id domain.UserId, passHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return internal_errors.NotFound("User not found")
	}
	user.PassHash = passHash
	s.users[id] = user
	return nil
}

func (s *Storage) DeleteUser(id domain.UserId) error {
	lock := s.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return internal_errors.NotFound("User not found")
	}
	if cart, ok := s.carts[id]; ok {
		for productId, qty := range cart.lines {
			if p, ok := s.products[productId]; ok {
				p.AvailableQuantity += qty
				s.products[productId] = p
			}
		}
	}
	delete(s.carts, id)
	delete(s.orders, id)
	delete(s.challenges, user.Email)
	delete(s.emails, user.Email)
	delete(s.users, id)
	return nil
}

func (s *Storage) SaveChallenge(challenge domain.VerificationChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.Email] = challenge
	return nil
}

func (s *Storage) Challenge(email domain.Email) (domain.VerificationChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[email]
	if !ok {
		return domain.VerificationChallenge{}, internal_errors.NotFound("Verification code not found")
	}
	return c, nil
}

func (s *Storage) MarkVerified(email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[email]
	if !ok {
		return internal_errors.NotFound("User not found")
	}
	user := s.users[id]
	user.Verified = true
	s.users[id] = user
	delete(s.challenges, email)
	return nil
}

func (s *Storage) DeleteChallenge(email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, email)
	return nil
}

// =========================================================================
// Catalog
// =========================================================================

func (s *Storage) SaveProduct(product domain.Product) (domain.ProductId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProd++
	product.Id = s.nextProd
	s.products[product.Id] = product
	return product.Id, nil
}

func (s *Storage) Product(id domain.ProductId) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, internal_errors.NotFound("Product not found")
	}
	return p, nil
}

func (s *Storage) Products() ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Id < products[j].Id })
	return products, nil
}

func (s *Storage) DeleteProduct(id domain.ProductId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return internal_errors.NotFound("Product not found")
	}
	delete(s.products, id)
	return nil
}

// =========================================================================
// Cart protocol
// =========================================================================

func (s *Storage) AddToCart(userId domain.UserId, productId domain.ProductId, qty int64) error {
	lock := s.userLock(userId)
	lock.RLock()
	defer lock.RUnlock()
	unlock := s.pairLocks.lock(pairKey(userId, productId))
	defer unlock()

	if err := s.requireUser(userId); err != nil {
		return err
	}
	return s.reserveAndMerge(userId, productId, qty)
}

func (s *Storage) IncreaseQuantity(userId domain.UserId, productId domain.ProductId) error {
	lock := s.userLock(userId)
	lock.RLock()
	defer lock.RUnlock()
	unlock := s.pairLocks.lock(pairKey(userId, productId))
	defer unlock()

	if err := s.requireUser(userId); err != nil {
		return err
	}
	if !s.lineExists(userId, productId) {
		return errNotInCart
	}
	if err := s.reserveAndMerge(userId, productId, 1); err != nil {
		if internal_errors.IsKind(err, internal_errors.KindInsufficientStock) {
			return &internal_errors.ErrorWithStatusCode{
				Kind:       internal_errors.KindOutOfStock,
				Message:    "Product is out of stock",
				StatusCode: http.StatusBadRequest,
			}
		}
		return err
	}
	return nil
}

func (s *Storage) DecreaseQuantity(userId domain.UserId, productId domain.ProductId) error {
	lock := s.userLock(userId)
	lock.RLock()
	defer lock.RUnlock()
	unlock := s.pairLocks.lock(pairKey(userId, productId))
	defer unlock()

	if err := s.requireUser(userId); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userId]
	if !ok || cart.lines[productId] == 0 {
		return errNotInCart
	}
	if cart.lines[productId] == 1 {
		return nil // floor: quantity 1 stays, no stock movement
	}
	p, ok := s.products[productId]
	if !ok {
		return internal_errors.NotFound("Product not found")
	}
	cart.lines[productId]--
	p.AvailableQuantity++
	s.products[productId] = p
	return nil
}

func (s *Storage) RemoveFromCart(userId domain.UserId, productId domain.ProductId) error {
	lock := s.userLock(userId)
	lock.RLock()
	defer lock.RUnlock()
	unlock := s.pairLocks.lock(pairKey(userId, productId))
	defer unlock()

	if err := s.requireUser(userId); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userId]
	if !ok || cart.lines[productId] == 0 {
		return errNotInCart
	}
	p, ok := s.products[productId]
	if !ok {
		return internal_errors.NotFound("Product not found")
	}
	p.AvailableQuantity += cart.lines[productId]
	s.products[productId] = p
	delete(cart.lines, productId)
	for i, id := range cart.order {
		if id == productId {
			cart.order = append(cart.order[:i], cart.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) Cart(userId domain.UserId) (domain.Cart, error) {
	lock := s.userLock(userId)
	lock.RLock()
	defer lock.RUnlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userId]; !ok {
		return domain.Cart{}, internal_errors.NotFound("User not found")
	}
	var cart domain.Cart
	state, ok := s.carts[userId]
	if !ok {
		return cart, nil
	}
	for _, productId := range state.order {
		line := domain.CartLine{ProductId: productId, Quantity: state.lines[productId]}
		if p, ok := s.products[productId]; ok {
			line.Name = p.Name
			line.Price = p.Price
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// =========================================================================
// Orders
// =========================================================================

func (s *Storage) PlaceOrder(userId domain.UserId, deliveryFee domain.Price) (domain.Order, error) {
	lock := s.userLock(userId)
	lock.Lock() // excludes all cart mutations for this account
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userId]
	if !ok {
		return domain.Order{}, internal_errors.NotFound("User not found")
	}
	cart, ok := s.carts[userId]
	if !ok || len(cart.order) == 0 {
		return domain.Order{}, &internal_errors.ErrorWithStatusCode{
			Kind:       internal_errors.KindEmptyCart,
			Message:    "Cart is empty",
			StatusCode: http.StatusBadRequest,
		}
	}

	var total domain.Price
	for _, productId := range cart.order {
		p, ok := s.products[productId]
		if !ok {
			logger.Log.Error("cart references product missing from catalog",
				"user_id", userId, "product_id", productId)
			return domain.Order{}, &internal_errors.ErrorWithStatusCode{
				Kind:       internal_errors.KindInconsistentCart,
				Message:    "Cart references a product no longer in the catalog",
				StatusCode: http.StatusConflict,
			}
		}
		total += p.Price * cart.lines[productId]
	}
	total += deliveryFee

	s.nextOrder++
	order := domain.Order{
		Id:         s.nextOrder,
		Reference:  uuid.NewString(),
		UserId:     userId,
		Username:   user.Username,
		ProductIds: append([]domain.ProductId(nil), cart.order...),
		TotalPrice: total,
		Status:     domain.OrderPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.orders[userId] = append(s.orders[userId], order)
	delete(s.carts, userId)
	return order, nil
}

func (s *Storage) OrdersByUser(userId domain.UserId) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userId]; !ok {
		return nil, internal_errors.NotFound("User not found")
	}
	orders := s.orders[userId]
	// newest first, matching the pg implementation
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[len(orders)-1-i] = o
	}
	return out, nil
}

// =========================================================================
// Internal helpers
// =========================================================================

var errNotInCart = &internal_errors.ErrorWithStatusCode{
	Kind:       internal_errors.KindNotFound,
	Message:    "Product not in cart",
	StatusCode: http.StatusNotFound,
}

func (s *Storage) requireUser(userId domain.UserId) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userId]; !ok {
		return internal_errors.NotFound("User not found")
	}
	return nil
}

func (s *Storage) lineExists(userId domain.UserId, productId domain.ProductId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[userId]
	return ok && cart.lines[productId] > 0
}

// reserveAndMerge is the atomic conditional decrement plus line upsert: stock
// is checked, taken, and credited to the cart line under one critical section,
// so conservation holds at every instant and concurrent reservations can never
// both pass a stale check.
func (s *Storage) reserveAndMerge(userId domain.UserId, productId domain.ProductId, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productId]
	if !ok {
		return internal_errors.NotFound("Product not found")
	}
	if p.AvailableQuantity < qty {
		return &internal_errors.ErrorWithStatusCode{
			Kind:       internal_errors.KindInsufficientStock,
			Message:    "Quantity exceeds stock",
			StatusCode: http.StatusBadRequest,
		}
	}
	p.AvailableQuantity -= qty
	s.products[productId] = p

	cart, ok := s.carts[userId]
	if !ok {
		cart = &cartState{lines: make(map[domain.ProductId]int64)}
		s.carts[userId] = cart
	}
	if cart.lines[productId] == 0 {
		cart.order = append(cart.order, productId)
	}
	cart.lines[productId] += qty
	return nil
}

// keyedLocks hands out one mutex per key, created on demand.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func pairKey(userId domain.UserId, productId domain.ProductId) string {
	return fmt.Sprintf("%d:%d", userId, productId)
}
