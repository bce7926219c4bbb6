// Package memstore keeps every repository port in process memory. It backs
// the "memory" store driver and the usecase tests.
package memstore

import (
	"sync"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/otp"
	"checkout-core/internal/domain/product"
	"checkout-core/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRecord struct {
	id         uuid.UUID
	title      string
	price      decimal.Decimal
	salePrice  *decimal.Decimal
	saleEndsAt *time.Time
	stock      int
	category   string
}

func (r *productRecord) snapshot() *product.Product {
	return product.Reconstruct(r.id, r.title, r.price, r.salePrice, r.saleEndsAt, r.stock, r.category)
}

type cartRecord struct {
	lines      []cartLine
	couponCode *string
	updatedAt  time.Time
}

type cartLine struct {
	productID uuid.UUID
	quantity  int
}

type otpKey struct {
	orderID uuid.UUID
	userID  uuid.UUID
}

type otpRecord struct {
	codeHash  string
	expiresAt time.Time
	attempts  int
}

type jobRecord struct {
	job    fulfillment.Job
	doneAt *time.Time
}

// Store is the shared state behind the per-port views. One mutex guards
// everything, which makes every conditional update atomic.
type Store struct {
	mu sync.Mutex

	products    map[uuid.UUID]*productRecord
	coupons     map[string]*coupon.Params
	redemptions map[uuid.UUID]map[uuid.UUID]struct{}
	orders      map[uuid.UUID]*order.Order
	carts       map[uuid.UUID]*cartRecord
	wishlists   map[uuid.UUID]map[uuid.UUID]struct{}
	users       map[uuid.UUID]commands.UserContact
	otps        map[otpKey]otpRecord
	jobs        map[uuid.UUID]*jobRecord
}

func New() *Store {
	return &Store{
		products:    make(map[uuid.UUID]*productRecord),
		coupons:     make(map[string]*coupon.Params),
		redemptions: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		orders:      make(map[uuid.UUID]*order.Order),
		carts:       make(map[uuid.UUID]*cartRecord),
		wishlists:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
		users:       make(map[uuid.UUID]commands.UserContact),
		otps:        make(map[otpKey]otpRecord),
		jobs:        make(map[uuid.UUID]*jobRecord),
	}
}

// PutProduct seeds or replaces a catalog entry.
func (s *Store) PutProduct(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID()] = &productRecord{
		id:         p.ID(),
		title:      p.Title(),
		price:      p.Price(),
		salePrice:  p.SalePrice(),
		saleEndsAt: p.SaleEndsAt(),
		stock:      p.Stock(),
		category:   p.Category(),
	}
}

// PutCoupon seeds or replaces a coupon, keyed by its code.
func (s *Store) PutCoupon(p coupon.Params) error {
	c, err := coupon.NewCoupon(p)
	if err != nil {
		return err
	}
	p.ID = c.ID()
	p.Code = c.Code().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[p.Code] = &p
	return nil
}

func (s *Store) PutUser(contact commands.UserContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[contact.UserID] = contact
}

func (s *Store) AddToWishlist(userID uuid.UUID, productIDs ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.wishlists[userID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.wishlists[userID] = set
	}
	for _, id := range productIDs {
		set[id] = struct{}{}
	}
}

func (s *Store) Wishlist(userID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.wishlists[userID]))
	for id := range s.wishlists[userID] {
		out = append(out, id)
	}
	return out
}

func (s *Store) Products() *ProductRepository    { return &ProductRepository{s: s} }
func (s *Store) Coupons() *CouponRepository      { return &CouponRepository{s: s} }
func (s *Store) Orders() *OrderRepository        { return &OrderRepository{s: s} }
func (s *Store) Carts() *CartRepository          { return &CartRepository{s: s} }
func (s *Store) Wishlists() *WishlistRepository  { return &WishlistRepository{s: s} }
func (s *Store) Users() *UserDirectory           { return &UserDirectory{s: s} }
func (s *Store) OTPs() *OTPRepository            { return &OTPRepository{s: s} }
func (s *Store) Jobs() *FulfillmentJobRepository { return &FulfillmentJobRepository{s: s} }

func cloneOrder(o *order.Order) *order.Order {
	var applied *order.AppliedCoupon
	if c := o.Coupon(); c != nil {
		cp := *c
		applied = &cp
	}
	return order.Reconstruct(order.ReconstructParams{
		ID:               o.ID(),
		Code:             o.Code(),
		UserID:           o.UserID(),
		Items:            o.Items(),
		Totals:           o.Totals(),
		Coupon:           applied,
		Status:           o.Status(),
		Payment:          clonePayment(o.Payment()),
		Address:          o.Address(),
		ExpectedDelivery: o.ExpectedDelivery(),
		Tracking:         o.Tracking(),
		CreatedAt:        o.CreatedAt(),
		UpdatedAt:        o.UpdatedAt(),
	})
}

func clonePayment(p order.PaymentInfo) order.PaymentInfo {
	if p.SessionID != nil {
		v := *p.SessionID
		p.SessionID = &v
	}
	if p.TransactionID != nil {
		v := *p.TransactionID
		p.TransactionID = &v
	}
	return p
}

func cloneOTP(key otpKey, rec otpRecord) *otp.CancellationOTP {
	return otp.Reconstruct(key.orderID, key.userID, rec.codeHash, rec.expiresAt, rec.attempts)
}
