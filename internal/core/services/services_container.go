package services

import (
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/categorizer"
	"github.com/SscSPs/finance_ingest_app/internal/emailparser"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// analyzer may be nil when no LLM key is configured.
func NewServiceContainer(set *rules.Set, repos portsrepo.RepositoryProvider, analyzer portssvc.StatementAnalyzer) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The alias service is shared so every caller sees the same cache.
	container.Alias = NewAliasService(repos.AliasRepo, set)

	container.Statement = NewStatementService(repos.StatementRepo, container.Alias, set)
	container.Attribution = NewAttributionService(repos.StatementRepo, set.AttributionConfig())
	container.Email = NewEmailService(repos.TransactionRepo, emailparser.New(set, categorizer.New(set)))
	container.Analysis = NewAnalysisService(analyzer)

	return container
}
