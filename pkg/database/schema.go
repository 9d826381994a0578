package database

import (
	"context"
	"fmt"
)

// TableEnsurer is implemented by repositories that can create their own tables.
type TableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// NamedEnsurer pairs an ensurer with a label used in error messages.
type NamedEnsurer struct {
	Name    string
	Ensurer TableEnsurer
}

// EnsureSchema runs every ensurer in order and stops at the first failure.
// Order matters: referenced tables must come before the tables that reference them.
func EnsureSchema(ctx context.Context, ensurers ...NamedEnsurer) error {
	for _, e := range ensurers {
		if err := e.Ensurer.EnsureTable(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", e.Name, err)
		}
	}
	return nil
}
