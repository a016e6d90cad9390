package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createCoreTablesMigration creates the accounts, referral and withdrawal
// tables. The unique pair indexes on referral_commissions and
// pending_referrals enforce at most one record per (referrer, referred).
func createCoreTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_core_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS accounts (
					telegram_id BIGINT PRIMARY KEY,
					username VARCHAR(100),
					full_name VARCHAR(200) NOT NULL,
					contact_number VARCHAR(20),
					student_id VARCHAR(20) UNIQUE,
					stream VARCHAR(20),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					balance BIGINT NOT NULL DEFAULT 0,
					total_earned BIGINT NOT NULL DEFAULT 0,
					total_withdrawn BIGINT NOT NULL DEFAULT 0,
					paid_referrals INT NOT NULL DEFAULT 0,
					unpaid_referrals INT NOT NULL DEFAULT 0,
					total_referrals INT NOT NULL DEFAULT 0,
					referral_code VARCHAR(20) NOT NULL UNIQUE,
					referred_by BIGINT,
					registered_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					last_seen_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_accounts_referral_code ON accounts(referral_code);
				CREATE INDEX idx_accounts_referred_by ON accounts(referred_by);
				CREATE INDEX idx_accounts_status ON accounts(status);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referral_commissions (
					id VARCHAR(64) PRIMARY KEY,
					referrer_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					referred_user_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					status VARCHAR(20) NOT NULL DEFAULT 'completed',
					amount BIGINT NOT NULL,
					credited_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					UNIQUE(referrer_id, referred_user_id)
				);

				CREATE INDEX idx_referral_commissions_referrer_id ON referral_commissions(referrer_id);
				CREATE INDEX idx_referral_commissions_credited_at ON referral_commissions(credited_at);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS pending_referrals (
					id SERIAL PRIMARY KEY,
					referrer_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					referred_user_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					converted_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					UNIQUE(referrer_id, referred_user_id)
				);

				CREATE INDEX idx_pending_referrals_referrer_id ON pending_referrals(referrer_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS withdrawal_requests (
					id VARCHAR(64) PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES accounts(telegram_id),
					amount BIGINT NOT NULL,
					method VARCHAR(20) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					phone VARCHAR(20),
					account_number VARCHAR(50),
					account_name VARCHAR(200),
					rejection_reason TEXT,
					processed_by VARCHAR(100),
					requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
					processed_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_withdrawal_requests_user_id ON withdrawal_requests(user_id);
				CREATE INDEX idx_withdrawal_requests_status ON withdrawal_requests(status);
				CREATE INDEX idx_withdrawal_requests_requested_at ON withdrawal_requests(requested_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS withdrawal_requests").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS pending_referrals").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS referral_commissions").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS accounts").Error
		},
	}
}
