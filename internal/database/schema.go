package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the three tables when missing.  route_points has no ON DELETE
// CASCADE: the activity repository removes child rows itself inside the same
// transaction as the parent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		username VARCHAR(100) NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NULL ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS activities (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		date DATETIME(6) NOT NULL,
		distance DOUBLE NOT NULL,
		pace VARCHAR(32) NULL,
		bpm INT NULL,
		time VARCHAR(64) NULL,
		route VARCHAR(255) NULL,
		activity_type ENUM('run','workout','cycling') NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NULL ON UPDATE CURRENT_TIMESTAMP(6),
		KEY idx_activities_user_date (user_id, date),
		CONSTRAINT fk_activities_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS route_points (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		activity_id BIGINT UNSIGNED NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		elevation DOUBLE NULL,
		timestamp DATETIME(6) NULL,
		order_index INT NOT NULL DEFAULT 0,
		KEY idx_route_points_activity (activity_id, order_index),
		CONSTRAINT fk_route_points_activity FOREIGN KEY (activity_id) REFERENCES activities (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
