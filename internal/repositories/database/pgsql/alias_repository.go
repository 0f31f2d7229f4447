package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	"github.com/SscSPs/finance_ingest_app/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAliasRepository struct {
	pool *pgxpool.Pool
}

func newPgxAliasRepository(pool *pgxpool.Pool) portsrepo.AliasRepositoryFacade {
	return &PgxAliasRepository{pool: pool}
}

var _ portsrepo.AliasRepositoryFacade = (*PgxAliasRepository)(nil)

// ListAliases returns every alias of the given kind in insertion order.
func (r *PgxAliasRepository) ListAliases(ctx context.Context, kind domain.AliasKind) ([]domain.Alias, error) {
	query := `
		SELECT alias_id, kind, name, name_key, canonical, abbreviation, created_at
		FROM aliases
		WHERE kind = $1
		ORDER BY created_at, alias_id;
	`
	rows, err := r.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query aliases", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Alias])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan alias rows", err)
	}

	aliases := make([]domain.Alias, len(ms))
	for i, m := range ms {
		aliases[i] = domain.Alias{
			AliasID:      m.AliasID,
			Kind:         domain.AliasKind(m.Kind),
			Name:         m.Name,
			Canonical:    m.Canonical,
			Abbreviation: m.Abbreviation,
			CreatedAt:    m.CreatedAt,
		}
	}
	return aliases, nil
}

// SaveAlias inserts an alias. A repeated (kind, name_key) returns apperrors.ErrDuplicate.
func (r *PgxAliasRepository) SaveAlias(ctx context.Context, alias domain.Alias) error {
	query := `
		INSERT INTO aliases (alias_id, kind, name, name_key, canonical, abbreviation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		alias.AliasID,
		string(alias.Kind),
		alias.Name,
		domain.AliasKey(alias.Name),
		alias.Canonical,
		alias.Abbreviation,
		alias.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s alias %q", apperrors.ErrDuplicate, alias.Kind, alias.Name)
		}
		return fmt.Errorf("failed to save alias %q: %w", alias.Name, err)
	}
	return nil
}
