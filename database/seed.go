package database

import (
	"database/sql"

	"golang.org/x/crypto/bcrypt"

	"github.com/avollaro/formsmith/config"
	"github.com/avollaro/formsmith/log"
)

// seedAdmin creates the configured admin user if it does not exist yet.
// An already-seeded admin keeps its current (possibly reset) password.
func seedAdmin(db *sql.DB, cfg config.Config) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	res, err := db.Exec(`
		INSERT INTO admin_user (email, password_hash) VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING`,
		cfg.AdminEmail,
		hash,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("Created default admin user %s", cfg.AdminEmail)
	}
	return nil
}
