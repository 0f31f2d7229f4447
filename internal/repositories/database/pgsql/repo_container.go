package pgsql

import (
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		StatementRepo:   newPgxStatementRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		AliasRepo:       newPgxAliasRepository(dbPool),
	}
}
