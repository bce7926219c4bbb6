package db

import (
	"context"
	"fmt"
)

// schemaStatements are idempotent; users, products and wishlists belong to
// neighbouring services and are created here only so a fresh database boots.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        name TEXT NOT NULL DEFAULT '',
        email TEXT UNIQUE NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS products (
        id UUID PRIMARY KEY,
        title TEXT NOT NULL,
        price NUMERIC(12,2) NOT NULL,
        sale_price NUMERIC(12,2),
        sale_ends_at TIMESTAMPTZ,
        stock INTEGER NOT NULL CHECK (stock >= 0),
        category TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS coupons (
        id UUID PRIMARY KEY,
        code TEXT UNIQUE NOT NULL,
        type TEXT NOT NULL,
        discount_percent NUMERIC(5,2),
        discount_amount NUMERIC(12,2),
        min_order_value NUMERIC(12,2) NOT NULL DEFAULT 0,
        categories TEXT[] NOT NULL DEFAULT '{}',
        first_order_only BOOLEAN NOT NULL DEFAULT FALSE,
        max_usage INTEGER NOT NULL CHECK (max_usage >= 1),
        used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
        starts_at TIMESTAMPTZ NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        active BOOLEAN NOT NULL DEFAULT TRUE
    )`,
	`CREATE TABLE IF NOT EXISTS coupon_redemptions (
        coupon_id UUID NOT NULL REFERENCES coupons(id),
        user_id UUID NOT NULL,
        redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (coupon_id, user_id)
    )`,
	`CREATE TABLE IF NOT EXISTS carts (
        user_id UUID PRIMARY KEY,
        lines JSONB NOT NULL DEFAULT '[]',
        coupon_code TEXT,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS wishlist_items (
        user_id UUID NOT NULL,
        product_id UUID NOT NULL,
        added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (user_id, product_id)
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id UUID PRIMARY KEY,
        code TEXT UNIQUE NOT NULL,
        user_id UUID NOT NULL,
        items JSONB NOT NULL,
        subtotal NUMERIC(12,2) NOT NULL,
        tax NUMERIC(12,2) NOT NULL,
        shipping NUMERIC(12,2) NOT NULL,
        discount NUMERIC(12,2) NOT NULL,
        grand_total NUMERIC(12,2) NOT NULL,
        final_total NUMERIC(12,2) NOT NULL,
        coupon JSONB,
        status TEXT NOT NULL,
        payment_method TEXT NOT NULL,
        payment_status TEXT NOT NULL,
        session_id TEXT UNIQUE,
        transaction_id TEXT,
        shipping_address JSONB NOT NULL,
        expected_delivery TIMESTAMPTZ NOT NULL,
        tracking JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS cancellation_otps (
        order_id UUID NOT NULL,
        user_id UUID NOT NULL,
        code_hash TEXT NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        attempts INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (order_id, user_id)
    )`,
	`CREATE TABLE IF NOT EXISTS fulfillment_jobs (
        id UUID PRIMARY KEY,
        order_id UUID NOT NULL REFERENCES orders(id),
        target_status TEXT NOT NULL,
        location TEXT NOT NULL,
        note TEXT NOT NULL,
        fire_at TIMESTAMPTZ NOT NULL,
        done_at TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_fulfillment_jobs_pending ON fulfillment_jobs(fire_at) WHERE done_at IS NULL`,
}

func InitSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
