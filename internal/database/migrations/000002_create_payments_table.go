package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createPaymentsTableMigration creates the registration payments table.
func createPaymentsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_payments_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS payments (
					id VARCHAR(64) PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					amount BIGINT NOT NULL,
					screenshot_file_id VARCHAR(200),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					rejection_reason TEXT,
					processed_by VARCHAR(100),
					submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
					processed_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_payments_user_id ON payments(user_id);
				CREATE INDEX idx_payments_status ON payments(status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS payments").Error
		},
	}
}
