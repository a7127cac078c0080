// Package dbtest opens an in-memory sqlite database carrying the fulfillment
// schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gstin TEXT,
		default_commission_percent TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sku TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		commission_percent TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		admin_status TEXT NOT NULL DEFAULT 'PENDING',
		expected_delivery_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		line_no INTEGER NOT NULL DEFAULT 0,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		commission_percent TEXT NOT NULL,
		commission_amount TEXT NOT NULL,
		vendor_payout TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		commission_locked_at DATETIME,
		dispatch_code TEXT,
		dispatch_code_created_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE generated_documents (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		vendor_id TEXT,
		vendor_scope TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		storage_key TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_generated_documents_key ON generated_documents (order_id, vendor_scope, doc_type)`,
	`CREATE TABLE refund_requests (
		id TEXT PRIMARY KEY,
		order_item_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		amount TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		evidence_urls TEXT NOT NULL DEFAULT '[]',
		bill_url TEXT,
		transport_slip_url TEXT,
		admin_note TEXT,
		decided_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_refund_requests_open_item ON refund_requests (order_item_id) WHERE status <> 'REJECTED'`,
	`CREATE TABLE refund_messages (
		id TEXT PRIMARY KEY,
		refund_id TEXT NOT NULL,
		sender_role TEXT NOT NULL,
		sender_id TEXT,
		text TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE complaints (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		resolution TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE ledger_events (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		order_item_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		refund_id TEXT,
		type TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		commission_amount TEXT NOT NULL,
		vendor_payout TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns a private in-memory database with every fulfillment table.
// The pool is pinned to one connection so concurrent callers serialize the
// way row locks would on postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
