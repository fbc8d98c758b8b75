package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema idempotently: every statement in schema.sql is
// guarded with IF NOT EXISTS, so re-running it is safe.
func Migrate(ctx context.Context, exec pgExecutor) error {
	if _, err := exec.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
