package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('OPEN', 'CLOSED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_type') THEN
			CREATE TYPE contract_type AS ENUM ('NEW', 'ADD', 'CHANGE');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_number VARCHAR(32) NOT NULL,
		contract_type contract_type NOT NULL,
		supplier_id UUID,
		supplier_name TEXT,
		status contract_status NOT NULL DEFAULT 'OPEN',
		base_pricing JSONB NOT NULL DEFAULT '[]',
		size_penalties JSONB NOT NULL DEFAULT '[]',
		deliveries JSONB NOT NULL DEFAULT '[]',
		version BIGINT NOT NULL DEFAULT 1,
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_supplier_ref CHECK (
			(supplier_id IS NOT NULL AND supplier_name IS NULL)
			OR (supplier_id IS NULL AND supplier_name IS NOT NULL)
		)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_number ON contracts (contract_number);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_supplier_id ON contracts (supplier_id) WHERE supplier_id IS NOT NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
