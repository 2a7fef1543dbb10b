package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		phone         VARCHAR(32) NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16) NOT NULL DEFAULT 'CUSTOMER',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS pricing_config (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		document   JSON NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS hotels (
		local_id               CHAR(36) PRIMARY KEY,
		supplier_hotel_id      VARCHAR(64) NOT NULL,
		transaction_identifier VARCHAR(128) NOT NULL DEFAULT '',
		name                   VARCHAR(255) NOT NULL,
		star_rating            TINYINT NOT NULL DEFAULT 0,
		location               JSON NULL,
		rates                  JSON NOT NULL,
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_hotels_supplier (supplier_hotel_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_policies (
		id                     CHAR(36) PRIMARY KEY,
		hotel_local_id         CHAR(36) NOT NULL,
		transaction_identifier VARCHAR(128) NOT NULL DEFAULT '',
		booking_key            VARCHAR(255) NOT NULL,
		rate                   JSON NOT NULL,
		policy                 JSON NULL,
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_policy_hotel (hotel_local_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS hotel_transactions (
		id                      CHAR(36) PRIMARY KEY,
		user_id                 BIGINT UNSIGNED NOT NULL,
		hotel_local_id          CHAR(36) NOT NULL,
		hotel_name              VARCHAR(255) NOT NULL DEFAULT '',
		booking_policy_id       CHAR(36) NOT NULL,
		transaction_identifier  VARCHAR(128) NOT NULL DEFAULT '',
		booking_key             VARCHAR(255) NOT NULL,
		supplier_booking_id     VARCHAR(128) NOT NULL DEFAULT '',
		payment_reference       VARCHAR(128) NOT NULL DEFAULT '',
		status                  TINYINT NOT NULL DEFAULT 0,
		base_amount             DECIMAL(12,2) NOT NULL DEFAULT 0,
		service_charge          DECIMAL(12,2) NOT NULL DEFAULT 0,
		processing_fee          DECIMAL(12,2) NOT NULL DEFAULT 0,
		gst                     DECIMAL(12,2) NOT NULL DEFAULT 0,
		total_chargeable_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		cancellation_charge     DECIMAL(12,2) NOT NULL DEFAULT 0,
		refund_amount           DECIMAL(12,2) NOT NULL DEFAULT 0,
		guests                  JSON NULL,
		created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tx_user (user_id),
		KEY idx_tx_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS meta_search (
		reference_id VARCHAR(128) PRIMARY KEY,
		vendor_id    VARCHAR(128) NOT NULL,
		vendor       VARCHAR(64) NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS blocked_ips (
		ip         VARCHAR(45) PRIMARY KEY,
		reason     VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS history (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event          VARCHAR(64) NOT NULL,
		transaction_id CHAR(36) NOT NULL,
		user_id        BIGINT UNSIGNED NOT NULL DEFAULT 0,
		message        TEXT NOT NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_history_tx (transaction_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
