package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createSeatInventoryTable,
		createTableSlotsTable,
		createBookingsTable,
		createWaitlistTable,
		createPaymentLedgerTable,
		createOutboxTable,
		createWaitlistOrderIndex,
		createOutboxStatusIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createSeatInventoryTable = `
CREATE TABLE IF NOT EXISTS seat_inventory (
    id UUID PRIMARY KEY,
    event_id VARCHAR(64) NOT NULL,
    seat_type VARCHAR(32) NOT NULL,
    price_minor BIGINT NOT NULL DEFAULT 0,
    total_seats INTEGER NOT NULL,
    available_seats INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (event_id, seat_type),
    CHECK (price_minor >= 0),
    CHECK (total_seats >= 0),
    CHECK (available_seats >= 0),
    CHECK (available_seats <= total_seats)
);`

const createTableSlotsTable = `
CREATE TABLE IF NOT EXISTS table_slots (
    id UUID PRIMARY KEY,
    restaurant_name VARCHAR(128) NOT NULL,
    table_number VARCHAR(32) NOT NULL,
    capacity INTEGER NOT NULL,
    price_minor BIGINT NOT NULL DEFAULT 0,
    starts_at TIMESTAMPTZ NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (restaurant_name, table_number, starts_at),
    CHECK (capacity > 0),
    CHECK (price_minor >= 0),
    CHECK (status IN ('AVAILABLE', 'HELD', 'BOOKED'))
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    kind VARCHAR(8) NOT NULL,
    subject_id VARCHAR(64) NOT NULL,
    seat_type VARCHAR(32) NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'INITIATED',
    amount_minor BIGINT NOT NULL DEFAULT 0,
    currency VARCHAR(8) NOT NULL DEFAULT 'INR',
    order_id VARCHAR(64),
    payment_id VARCHAR(128),
    idempotency_key VARCHAR(128),
    request_hash VARCHAR(64),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (idempotency_key),
    UNIQUE (payment_id),
    CHECK (quantity > 0),
    CHECK (kind IN ('EVENT', 'TABLE')),
    CHECK (status IN ('INITIATED', 'PENDING_PAYMENT', 'SUCCESS', 'FAILED', 'CANCELLED', 'EXPIRED'))
);`

const createWaitlistTable = `
CREATE TABLE IF NOT EXISTS waitlist_entries (
    id UUID PRIMARY KEY,
    event_id VARCHAR(64) NOT NULL,
    seat_type VARCHAR(32) NOT NULL,
    quantity INTEGER NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'WAITING',
    booking_id UUID,
    offer_expires_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (quantity > 0),
    CHECK (status IN ('WAITING', 'OFFERED', 'CONVERTED', 'EXPIRED'))
);`

const createPaymentLedgerTable = `
CREATE TABLE IF NOT EXISTS payment_ledger (
    id UUID PRIMARY KEY,
    provider VARCHAR(32) NOT NULL,
    payment_id VARCHAR(128) NOT NULL,
    booking_id UUID NOT NULL,
    outcome VARCHAR(16) NOT NULL,
    payload_hash VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (provider, payment_id),
    CHECK (outcome IN ('SUCCESS', 'FAILURE'))
);`

const createOutboxTable = `
CREATE TABLE IF NOT EXISTS outbox_entries (
    id UUID PRIMARY KEY,
    aggregate_type VARCHAR(64) NOT NULL,
    aggregate_id VARCHAR(64) NOT NULL,
    event_type VARCHAR(64) NOT NULL,
    payload JSONB NOT NULL,
    dedupe_key VARCHAR(255) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    published_at TIMESTAMPTZ,

    UNIQUE (dedupe_key),
    CHECK (status IN ('PENDING', 'PUBLISHED', 'FAILED'))
);`

const createWaitlistOrderIndex = `
CREATE INDEX IF NOT EXISTS waitlist_fifo_idx
ON waitlist_entries (event_id, seat_type, created_at)
WHERE status IN ('WAITING', 'OFFERED');`

const createOutboxStatusIndex = `
CREATE INDEX IF NOT EXISTS outbox_status_created_idx
ON outbox_entries (status, created_at);`
