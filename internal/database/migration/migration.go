package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  share_id         UUID        NOT NULL UNIQUE,
  creator_id       TEXT        NOT NULL,
  creator_name     TEXT        NOT NULL DEFAULT '',
  title            TEXT        NOT NULL,
  description      TEXT        NOT NULL DEFAULT '',
  price_cents      BIGINT      NOT NULL CHECK (price_cents >= 99),
  preview_content  TEXT        NOT NULL DEFAULT '',
  tags             JSONB       NOT NULL DEFAULT '[]',
  cover_image_path TEXT,
  doc_ref          TEXT        NOT NULL,
  doc_url          TEXT        NOT NULL,
  is_active        BOOLEAN     NOT NULL DEFAULT TRUE,
  sales            BIGINT      NOT NULL DEFAULT 0 CHECK (sales >= 0),
  views            BIGINT      NOT NULL DEFAULT 0 CHECK (views >= 0),
  revenue_cents    BIGINT      NOT NULL DEFAULT 0 CHECK (revenue_cents >= 0),
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_creator_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_creator_id ON documents (creator_id);`,
	},
	{
		Name: "create_table_purchases",
		SQL: `CREATE TABLE IF NOT EXISTS purchases (
  id                     UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id            UUID        NOT NULL REFERENCES documents (id),
  creator_id             TEXT        NOT NULL,
  customer_email         TEXT        NOT NULL,
  customer_name          TEXT,
  amount_cents           BIGINT      NOT NULL CHECK (amount_cents > 0),
  platform_fee_cents     BIGINT      NOT NULL CHECK (platform_fee_cents >= 0),
  creator_earnings_cents BIGINT      NOT NULL CHECK (creator_earnings_cents >= 0),
  status                 TEXT        NOT NULL DEFAULT 'pending'
                                     CHECK (status IN ('pending', 'completed', 'failed')),
  payment_ref            TEXT,
  created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (platform_fee_cents + creator_earnings_cents = amount_cents)
);`,
	},
	{
		// One completed purchase per (document, customer). The application
		// checks first, but only this index makes concurrent completions safe.
		Name: "create_unique_index_purchases_completed",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_purchases_completed
  ON purchases (document_id, customer_email) WHERE status = 'completed';`,
	},
	{
		Name: "create_index_purchases_document_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_purchases_document_email ON purchases (document_id, customer_email);`,
	},
	{
		Name: "create_index_purchases_creator_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_purchases_creator_created ON purchases (creator_id, created_at DESC);`,
	},
	{
		Name: "create_table_access_grants",
		SQL: `CREATE TABLE IF NOT EXISTS access_grants (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id    UUID        NOT NULL REFERENCES documents (id),
  purchase_id    UUID        NOT NULL UNIQUE REFERENCES purchases (id),
  customer_email TEXT        NOT NULL,
  access_level   TEXT        NOT NULL DEFAULT 'edit',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, customer_email)
);`,
	},
	{
		Name: "create_index_access_grants_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_access_grants_email ON access_grants (customer_email);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
