package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	Host     string `env:"DB_HOST,required"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER,required"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,required"`
}

// DSN builds the connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(cfg DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN())
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to PostgreSQL!")
				return pool, nil
			}
			pool.Close()
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user'
			CHECK (role IN ('user', 'restaurant', 'deliveryman', 'developer', 'marketing', 'technical')),
		partner_code TEXT NOT NULL,
		partner_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		restaurant TEXT,
		refresh_token TEXT,
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		last_login TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP WITH TIME ZONE,
		CONSTRAINT users_partner_code_key UNIQUE (partner_code)
	);

	-- Email is unique among live accounts only
	CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users(email) WHERE deleted_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_users_partner_id ON users(partner_id);

    CREATE OR REPLACE FUNCTION update_updated_at_column()
    RETURNS TRIGGER AS $$
    BEGIN
       NEW.updated_at = NOW();
       RETURN NEW;
    END;
    $$ language 'plpgsql';

    DO $$
    BEGIN
        IF NOT EXISTS (
            SELECT 1
            FROM pg_trigger
            WHERE tgname = 'set_users_updated_at' AND tgrelid = 'users'::regclass
        ) THEN
            CREATE TRIGGER set_users_updated_at
            BEFORE UPDATE ON users
            FOR EACH ROW
            EXECUTE FUNCTION update_updated_at_column();
        END IF;
    END
    $$;
	`
	_, err := db.Exec(context.Background(), sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
