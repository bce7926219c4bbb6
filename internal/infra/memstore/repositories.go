package memstore

import (
	"context"
	"sort"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/otp"
	"checkout-core/internal/domain/product"
	"checkout-core/internal/infra"
	"checkout-core/internal/usecase/commands"

	"github.com/google/uuid"
)

type ProductRepository struct{ s *Store }

func (r *ProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*product.Product, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.s.products[id]; ok {
			out = append(out, rec.snapshot())
		}
	}
	return out, nil
}

func (r *ProductRepository) DecrementStockIf(_ context.Context, id uuid.UUID, qty int) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.products[id]
	if !ok {
		return 0, false, nil
	}
	if rec.stock < qty {
		return rec.stock, false, nil
	}
	rec.stock -= qty
	return rec.stock, true, nil
}

func (r *ProductRepository) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.products[id]
	if !ok {
		return infra.NotFound("product not found")
	}
	rec.stock += qty
	return nil
}

func (r *ProductRepository) ClearExpiredSales(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rec := range r.s.products {
		if rec.salePrice != nil && rec.saleEndsAt != nil && !now.Before(*rec.saleEndsAt) {
			rec.salePrice, rec.saleEndsAt = nil, nil
			n++
		}
	}
	return n, nil
}

type CouponRepository struct{ s *Store }

func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.coupons[code]
	if !ok {
		return nil, infra.NotFound("coupon not found")
	}
	return coupon.NewCoupon(*p)
}

func (r *CouponRepository) CountUserRedemptions(_ context.Context, couponID, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.redemptions[couponID][userID]; ok {
		return 1, nil
	}
	return 0, nil
}

func (r *CouponRepository) Redeem(_ context.Context, couponID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.couponByID(couponID)
	if p == nil {
		return infra.NotFound("coupon not found")
	}
	if p.UsedCount >= p.MaxUsage {
		return coupon.ErrCouponExhausted
	}
	users, ok := r.s.redemptions[couponID]
	if !ok {
		users = make(map[uuid.UUID]struct{})
		r.s.redemptions[couponID] = users
	}
	if _, used := users[userID]; used {
		return coupon.ErrCouponAlreadyUsed
	}
	users[userID] = struct{}{}
	p.UsedCount++
	return nil
}

func (r *CouponRepository) ReleaseRedemption(_ context.Context, couponID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.redemptions[couponID][userID]; !ok {
		return nil
	}
	delete(r.s.redemptions[couponID], userID)
	if p := r.s.couponByID(couponID); p != nil && p.UsedCount > 0 {
		p.UsedCount--
	}
	return nil
}

func (r *CouponRepository) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.coupons {
		if p.Active && p.ExpiresAt.Before(now) {
			p.Active = false
			n++
		}
	}
	return n, nil
}

// couponByID expects the lock to be held.
func (s *Store) couponByID(id uuid.UUID) *coupon.Params {
	for _, p := range s.coupons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.orders {
		if existing.Code() == o.Code() {
			return infra.WrapRepoErr(nil, infra.KindDuplicateKey, "order code already exists", nil)
		}
	}
	if _, ok := r.s.orders[o.ID()]; ok {
		return infra.WrapRepoErr(nil, infra.KindDuplicateKey, "order id already exists", nil)
	}
	r.s.orders[o.ID()] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, infra.NotFound("order not found")
}

func (r *OrderRepository) FindByCode(_ context.Context, code string) (*order.Order, error) {
	return r.findFirst(func(o *order.Order) bool { return o.Code().String() == code })
}

func (r *OrderRepository) FindBySessionID(_ context.Context, sessionID string) (*order.Order, error) {
	return r.findFirst(func(o *order.Order) bool {
		sid := o.Payment().SessionID
		return sid != nil && *sid == sessionID
	})
}

func (r *OrderRepository) findFirst(match func(*order.Order) bool) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, infra.NotFound("order not found")
}

func (r *OrderRepository) CountCompletedPurchases(_ context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, o := range r.s.orders {
		if o.UserID() == userID && o.Payment().Status == order.PaymentCompleted {
			n++
		}
	}
	return n, nil
}

func (r *OrderRepository) AttachSession(_ context.Context, id uuid.UUID, sessionID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return infra.NotFound("order not found")
	}
	o.AttachSession(sessionID, at)
	return nil
}

func (r *OrderRepository) UpdateIfStatus(_ context.Context, o *order.Order, expected order.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.orders[o.ID()]
	if !ok {
		return false, infra.NotFound("order not found")
	}
	if stored.Status() != expected {
		return false, nil
	}
	r.s.orders[o.ID()] = cloneOrder(o)
	return true, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*order.Order
	for _, o := range r.s.orders {
		if o.UserID() != userID {
			continue
		}
		if afterCreatedAt != nil && !keysetBefore(o, *afterCreatedAt, afterID) {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		return keysetBefore(matched[j], matched[i].CreatedAt(), matched[i].ID())
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*order.Order, 0, len(matched))
	for _, o := range matched {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

// keysetBefore reports (o.createdAt, o.id) < (at, id).
func keysetBefore(o *order.Order, at time.Time, id uuid.UUID) bool {
	if !o.CreatedAt().Equal(at) {
		return o.CreatedAt().Before(at)
	}
	return o.ID().String() < id.String()
}

type CartRepository struct{ s *Store }

func (r *CartRepository) FindByUser(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.carts[userID]
	if !ok {
		return nil, infra.NotFound("cart not found")
	}
	lines := make([]cart.Line, 0, len(rec.lines))
	for _, l := range rec.lines {
		lines = append(lines, cart.Line{ProductID: l.productID, Quantity: l.quantity})
	}
	var code *string
	if rec.couponCode != nil {
		v := *rec.couponCode
		code = &v
	}
	return cart.Reconstruct(userID, lines, code, rec.updatedAt), nil
}

func (r *CartRepository) Save(_ context.Context, c *cart.Cart) error {
	rec := &cartRecord{updatedAt: c.UpdatedAt()}
	for _, l := range c.Lines() {
		rec.lines = append(rec.lines, cartLine{productID: l.ProductID, quantity: l.Quantity})
	}
	if code := c.CouponCode(); code != nil {
		v := *code
		rec.couponCode = &v
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[c.UserID()] = rec
	return nil
}

type WishlistRepository struct{ s *Store }

func (r *WishlistRepository) RemoveProducts(_ context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range productIDs {
		delete(r.s.wishlists[userID], id)
	}
	return nil
}

type UserDirectory struct{ s *Store }

func (r *UserDirectory) FindContact(_ context.Context, userID uuid.UUID) (*commands.UserContact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.users[userID]
	if !ok {
		return nil, infra.NotFound("user not found")
	}
	return &c, nil
}

type OTPRepository struct{ s *Store }

func (r *OTPRepository) Find(_ context.Context, orderID, userID uuid.UUID) (*otp.CancellationOTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := otpKey{orderID: orderID, userID: userID}
	rec, ok := r.s.otps[key]
	if !ok {
		return nil, infra.NotFound("otp not found")
	}
	return cloneOTP(key, rec), nil
}

func (r *OTPRepository) Save(_ context.Context, o *otp.CancellationOTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.otps[otpKey{orderID: o.OrderID(), userID: o.UserID()}] = otpRecord{
		codeHash:  o.CodeHash(),
		expiresAt: o.ExpiresAt(),
		attempts:  o.Attempts(),
	}
	return nil
}

func (r *OTPRepository) UpdateAttempts(_ context.Context, o *otp.CancellationOTP, expected int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := otpKey{orderID: o.OrderID(), userID: o.UserID()}
	rec, ok := r.s.otps[key]
	if !ok || rec.attempts != expected {
		return false, nil
	}
	rec.attempts = o.Attempts()
	r.s.otps[key] = rec
	return true, nil
}

func (r *OTPRepository) Delete(_ context.Context, orderID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := otpKey{orderID: orderID, userID: userID}
	if _, ok := r.s.otps[key]; !ok {
		return infra.NotFound("otp not found")
	}
	delete(r.s.otps, key)
	return nil
}

type FulfillmentJobRepository struct{ s *Store }

func (r *FulfillmentJobRepository) Enqueue(_ context.Context, jobs []fulfillment.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, j := range jobs {
		if _, ok := r.s.orders[j.OrderID]; !ok {
			return infra.WrapRepoErr(nil, infra.KindForeignKeyViolated, "order for fulfillment job does not exist", nil)
		}
	}
	for _, j := range jobs {
		if _, ok := r.s.jobs[j.ID]; !ok {
			r.s.jobs[j.ID] = &jobRecord{job: j}
		}
	}
	return nil
}

func (r *FulfillmentJobRepository) ListPending(_ context.Context, limit int) ([]fulfillment.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pending []fulfillment.Job
	for _, rec := range r.s.jobs {
		if rec.doneAt == nil {
			pending = append(pending, rec.job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].FireAt.Equal(pending[j].FireAt) {
			return pending[i].FireAt.Before(pending[j].FireAt)
		}
		return pending[i].ID.String() < pending[j].ID.String()
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *FulfillmentJobRepository) MarkDone(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.jobs[id]; ok && rec.doneAt == nil {
		done := at
		rec.doneAt = &done
	}
	return nil
}
