package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minFuzzyLen keeps very short registry names from matching everything by substring.
const minFuzzyLen = 3

type keyword struct {
	normalized string
	canonical  string
}

// aliasService resolves raw bank and card names through a read-through cache
// in front of the alias registry.
type aliasService struct {
	BaseService
	repo     portsrepo.AliasRepositoryFacade
	suffixes []string
	prefixes []string
	keywords map[domain.AliasKind][]keyword

	mu    sync.RWMutex
	cache map[domain.AliasKind][]domain.Alias
}

// AliasServiceOption is a functional option for configuring the alias service
type AliasServiceOption func(*aliasService)

// WithAliasClock overrides the clock used for created-at stamps.
func WithAliasClock(now func() time.Time) AliasServiceOption {
	return func(s *aliasService) {
		s.now = now
	}
}

// NewAliasService creates the alias normalizer for the given rule set.
func NewAliasService(repo portsrepo.AliasRepositoryFacade, set *rules.Set, options ...AliasServiceOption) portssvc.AliasSvc {
	svc := &aliasService{
		repo:     repo,
		keywords: make(map[domain.AliasKind][]keyword, 2),
		cache:    make(map[domain.AliasKind][]domain.Alias, 2),
	}
	for _, suffix := range set.Aliases.LegalSuffixes {
		svc.suffixes = append(svc.suffixes, foldAccents(strings.ToLower(suffix)))
	}
	for _, prefix := range set.Aliases.Prefixes {
		svc.prefixes = append(svc.prefixes, foldAccents(strings.ToLower(prefix)))
	}
	for _, kw := range set.Aliases.BankKeywords {
		svc.keywords[domain.AliasBank] = append(svc.keywords[domain.AliasBank], keyword{normalized: svc.normalize(kw.Keyword), canonical: kw.Canonical})
	}
	for _, kw := range set.Aliases.CardKeywords {
		svc.keywords[domain.AliasCard] = append(svc.keywords[domain.AliasCard], keyword{normalized: svc.normalize(kw.Keyword), canonical: kw.Canonical})
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AliasSvc = (*aliasService)(nil)

// LookupOrCreate implements portssvc.AliasSvc.
func (s *aliasService) LookupOrCreate(ctx context.Context, kind domain.AliasKind, raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}
	logger := s.GetLogger(ctx).With(slog.String("alias_kind", string(kind)), slog.String("name", name))

	entries, err := s.entries(ctx, kind)
	if err != nil {
		logger.Warn("Alias registry unavailable, keeping raw name", slog.String("error", err.Error()))
		return name
	}

	if a, ok := matchExact(entries, name); ok {
		return a.Display()
	}
	if a, ok := s.matchNormalized(entries, name); ok {
		logger.Debug("Alias resolved by normalized match", slog.String("canonical", a.Canonical))
		return a.Display()
	}

	alias := domain.Alias{Kind: kind, Name: name, Canonical: name, Abbreviation: name}
	if canonical, ok := s.matchKeyword(kind, name); ok {
		alias.Canonical = canonical
		alias.Abbreviation = canonical
		if target, found := matchExact(entries, canonical); found {
			alias.Canonical = target.Canonical
			alias.Abbreviation = target.Display()
		}
		logger.Debug("Alias resolved by keyword", slog.String("canonical", alias.Canonical))
	}
	s.register(ctx, alias)
	return alias.Display()
}

// Refresh implements portssvc.AliasSvc.
func (s *aliasService) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[domain.AliasKind][]domain.Alias, 2)
}

func (s *aliasService) entries(ctx context.Context, kind domain.AliasKind) ([]domain.Alias, error) {
	s.mu.RLock()
	entries, ok := s.cache[kind]
	s.mu.RUnlock()
	if ok {
		return entries, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entries, ok := s.cache[kind]; ok {
		return entries, nil
	}
	loaded, err := s.repo.ListAliases(ctx, kind)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = []domain.Alias{}
	}
	s.cache[kind] = loaded
	return loaded, nil
}

// register stores a new alias. Failures are logged and otherwise ignored.
func (s *aliasService) register(ctx context.Context, alias domain.Alias) {
	alias.AliasID = uuid.NewString()
	alias.CreatedAt = s.Now()

	if err := s.repo.SaveAlias(ctx, alias); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Registered concurrently; reload on next lookup.
			s.mu.Lock()
			delete(s.cache, alias.Kind)
			s.mu.Unlock()
			return
		}
		s.LogError(ctx, err, "Failed to register alias", slog.String("alias_kind", string(alias.Kind)), slog.String("name", alias.Name))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entries, ok := s.cache[alias.Kind]; ok {
		s.cache[alias.Kind] = append(entries[:len(entries):len(entries)], alias)
	}
}

func matchExact(entries []domain.Alias, name string) (domain.Alias, bool) {
	key := domain.AliasKey(name)
	for _, a := range entries {
		if domain.AliasKey(a.Name) == key || domain.AliasKey(a.Canonical) == key {
			return a, true
		}
	}
	return domain.Alias{}, false
}

// matchNormalized compares normalized forms; on substring matches the
// longest registry entry wins.
func (s *aliasService) matchNormalized(entries []domain.Alias, name string) (domain.Alias, bool) {
	target := s.normalize(name)
	if target == "" {
		return domain.Alias{}, false
	}
	var best domain.Alias
	bestLen := 0
	for _, a := range entries {
		for _, candidate := range []string{s.normalize(a.Name), s.normalize(a.Canonical)} {
			if candidate == target {
				return a, true
			}
			if len(candidate) < minFuzzyLen || len(target) < minFuzzyLen {
				continue
			}
			if (strings.Contains(target, candidate) || strings.Contains(candidate, target)) && len(candidate) > bestLen {
				best, bestLen = a, len(candidate)
			}
		}
	}
	return best, bestLen > 0
}

func (s *aliasService) matchKeyword(kind domain.AliasKind, name string) (string, bool) {
	target := s.normalize(name)
	canonical, bestLen := "", 0
	for _, kw := range s.keywords[kind] {
		if kw.normalized != "" && strings.Contains(target, kw.normalized) && len(kw.normalized) > bestLen {
			canonical, bestLen = kw.canonical, len(kw.normalized)
		}
	}
	return canonical, bestLen > 0
}

// normalize lower-cases, folds accents, drops punctuation, then strips legal
// suffixes and a leading generic prefix such as "banco del".
func (s *aliasService) normalize(name string) string {
	folded := foldAccents(strings.ToLower(name))
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	n := strings.Join(strings.Fields(folded), " ")

	for changed := true; changed; {
		changed = false
		for _, suffix := range s.suffixes {
			if strings.HasSuffix(n, " "+suffix) {
				n = strings.TrimSpace(strings.TrimSuffix(n, suffix))
				changed = true
			}
		}
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(n, prefix+" ") {
			n = strings.TrimPrefix(n, prefix+" ")
			break
		}
	}
	return n
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
