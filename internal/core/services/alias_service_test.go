package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/core/services"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AliasServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAliasRepository
	service  portssvc.AliasSvc
	ctx      context.Context
	now      time.Time
}

func (suite *AliasServiceTestSuite) SetupTest() {
	set, err := rules.Default()
	suite.Require().NoError(err)

	suite.ctx = context.Background()
	suite.now = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	suite.mockRepo = new(MockAliasRepository)
	suite.service = services.NewAliasService(suite.mockRepo, set, services.WithAliasClock(func() time.Time { return suite.now }))
}

func bankRegistry() []domain.Alias {
	return []domain.Alias{
		{AliasID: "1", Kind: domain.AliasBank, Name: "Banco Pichincha", Canonical: "Banco Pichincha", Abbreviation: "BP"},
		{AliasID: "2", Kind: domain.AliasBank, Name: "Produbanco", Canonical: "Produbanco", Abbreviation: "PB"},
		{AliasID: "3", Kind: domain.AliasBank, Name: "Banco del Pacífico", Canonical: "Banco del Pacífico", Abbreviation: "BdP"},
	}
}

func (suite *AliasServiceTestSuite) TestExactMatchUsesCache() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(bankRegistry(), nil).Once()

	suite.Equal("BP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "  banco pichincha "))
	suite.Equal("PB", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "PRODUBANCO"))

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAlias", mock.Anything, mock.Anything)
}

func (suite *AliasServiceTestSuite) TestNormalizedMatch() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(bankRegistry(), nil).Once()

	suite.Equal("BP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "BANCO PICHINCHA C.A."))
	suite.Equal("BdP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco del Pacifico S.A."))
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAlias", mock.Anything, mock.Anything)
}

func (suite *AliasServiceTestSuite) TestSubstringMatchPrefersLongestEntry() {
	cards := []domain.Alias{
		{Kind: domain.AliasCard, Name: "Diners", Canonical: "Diners", Abbreviation: "Diners"},
		{Kind: domain.AliasCard, Name: "Diners Club International", Canonical: "Diners Club International", Abbreviation: "DCI"},
	}
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasCard).Return(cards, nil).Once()

	suite.Equal("DCI", suite.service.LookupOrCreate(suite.ctx, domain.AliasCard, "DINERS CLUB INTERNATIONAL TITANIUM"))
}

func (suite *AliasServiceTestSuite) TestKeywordRegistersAliasOfCanonical() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(bankRegistry(), nil).Once()
	suite.mockRepo.On("SaveAlias", suite.ctx, mock.MatchedBy(func(a domain.Alias) bool {
		return a.Kind == domain.AliasBank &&
			a.Name == "Banco Promerica S.A." &&
			a.Canonical == "Produbanco" &&
			a.Abbreviation == "PB" &&
			a.AliasID != "" &&
			a.CreatedAt.Equal(suite.now)
	})).Return(nil).Once()

	suite.Equal("PB", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Promerica S.A."))
	// Second lookup is answered from the cache by exact match.
	suite.Equal("PB", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "banco promerica s.a."))

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestKeywordWithoutRegistryEntry() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasCard).Return([]domain.Alias{}, nil).Once()
	suite.mockRepo.On("SaveAlias", suite.ctx, mock.MatchedBy(func(a domain.Alias) bool {
		return a.Name == "VISA GOLD" && a.Canonical == "Visa" && a.Abbreviation == "Visa"
	})).Return(nil).Once()

	suite.Equal("Visa", suite.service.LookupOrCreate(suite.ctx, domain.AliasCard, "VISA GOLD"))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestUnknownNameIsInserted() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(bankRegistry(), nil).Once()
	suite.mockRepo.On("SaveAlias", suite.ctx, mock.MatchedBy(func(a domain.Alias) bool {
		return a.Name == "Cooperativa JEP" && a.Canonical == "Cooperativa JEP" && a.Abbreviation == "Cooperativa JEP"
	})).Return(nil).Once()

	suite.Equal("Cooperativa JEP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Cooperativa JEP"))
	suite.Equal("Cooperativa JEP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "COOPERATIVA JEP"))

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestRegistryFailureReturnsRawName() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(nil, errors.New("connection refused")).Twice()

	suite.Equal("Banco X", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, " Banco X "))
	// Failures are not cached.
	suite.Equal("Banco X", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco X"))

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAlias", mock.Anything, mock.Anything)
}

func (suite *AliasServiceTestSuite) TestSaveFailureReturnsRawName() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return([]domain.Alias{}, nil).Once()
	suite.mockRepo.On("SaveAlias", suite.ctx, mock.Anything).Return(errors.New("insert failed")).Once()

	suite.Equal("Banco Nuevo", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Nuevo"))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestConcurrentInsertReloadsRegistry() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return([]domain.Alias{}, nil).Once()
	suite.mockRepo.On("SaveAlias", suite.ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	suite.Equal("Banco Nuevo", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Nuevo"))

	reloaded := []domain.Alias{{Kind: domain.AliasBank, Name: "Banco Nuevo", Canonical: "Banco Nuevo", Abbreviation: "BN"}}
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(reloaded, nil).Once()
	suite.Equal("BN", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Nuevo"))

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestRefreshReloads() {
	suite.mockRepo.On("ListAliases", suite.ctx, domain.AliasBank).Return(bankRegistry(), nil).Twice()

	suite.Equal("BP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Pichincha"))
	suite.service.Refresh()
	suite.Equal("BP", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "Banco Pichincha"))

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AliasServiceTestSuite) TestEmptyName() {
	suite.Equal("", suite.service.LookupOrCreate(suite.ctx, domain.AliasBank, "   "))
	suite.mockRepo.AssertNotCalled(suite.T(), "ListAliases", mock.Anything, mock.Anything)
}

func TestAliasService(t *testing.T) {
	suite.Run(t, new(AliasServiceTestSuite))
}
