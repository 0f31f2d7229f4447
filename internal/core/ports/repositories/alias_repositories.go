package repositories

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
)

// AliasReader defines read operations on the bank and card registries
type AliasReader interface {
	// ListAliases returns every alias of the given kind.
	ListAliases(ctx context.Context, kind domain.AliasKind) ([]domain.Alias, error)
}

// AliasWriter defines write operations on the bank and card registries
type AliasWriter interface {
	// SaveAlias inserts an alias; a repeated (kind, name) returns apperrors.ErrDuplicate.
	SaveAlias(ctx context.Context, alias domain.Alias) error
}

// AliasRepositoryFacade combines alias reads and writes
type AliasRepositoryFacade interface {
	AliasReader
	AliasWriter
}
