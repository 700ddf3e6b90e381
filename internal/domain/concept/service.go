package concept

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/textnorm"
)

// Service orchestrates one concept sync run: root-set search, recursive
// membership resolution, reconciliation and persistence.
type Service struct {
	source      Source
	repo        Repository
	resolver    *SetResolver
	reconciler  *Reconciler
	rootSetName string
	logger      zerolog.Logger
}

// NewService wires the sync pipeline. rootSetName is the display name of
// the concept set that defines what is orderable (e.g. "All Orderables").
func NewService(source Source, repo Repository, rootSetName string, workers int, logger zerolog.Logger) *Service {
	return &Service{
		source:      source,
		repo:        repo,
		resolver:    NewSetResolver(source, workers),
		reconciler:  NewReconciler(source, workers, logger),
		rootSetName: rootSetName,
		logger:      logger,
	}
}

// findRootSet searches for the configured root set and selects the
// active, set-flagged candidate whose display matches the name under
// normalization. Retired or non-set candidates never qualify.
func (s *Service) findRootSet(ctx context.Context) (string, error) {
	candidates, err := s.source.SearchConceptSets(ctx, s.rootSetName)
	if err != nil {
		return "", fmt.Errorf("search root set: %w", err)
	}

	for _, c := range candidates {
		if c.Set && !c.Retired && textnorm.Equal(c.Display, s.rootSetName) {
			return c.UUID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrRootSetNotFound, s.rootSetName)
}

// Sync runs the full pipeline and persists the final concept list,
// attributing each record to actor. Dictionary and tree-resolution
// failures abort the run; per-panel and per-record problems degrade.
func (s *Service) Sync(ctx context.Context, actor string) (*SyncSummary, error) {
	rootUUID, err := s.findRootSet(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("root_uuid", rootUUID).Str("root_set", s.rootSetName).Msg("resolved root concept set")

	allowed, err := s.resolver.Resolve(ctx, rootUUID)
	if err != nil {
		return nil, fmt.Errorf("resolve allowed set: %w", err)
	}
	// The resolver includes the root as its first visited node, but the
	// allowance contract is explicit: the root is always allowed.
	allowed[rootUUID] = struct{}{}

	all, err := s.source.ListAllConcepts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch concept dictionary: %w", err)
	}

	result, err := s.reconciler.Reconcile(ctx, all, allowed)
	if err != nil {
		return nil, fmt.Errorf("reconcile concepts: %w", err)
	}

	summary := &SyncSummary{
		Panels:     len(result.Panels),
		Standalone: len(result.Standalone),
	}

	for _, c := range result.Final() {
		name := c.PreferredName()
		if name == "" {
			s.logger.Warn().Str("uuid", c.UUID).Msg("skipped concept with no resolvable name")
			summary.Skipped++
			continue
		}

		rec := &LocalConceptRecord{
			UUID:                c.UUID,
			DisplayName:         c.Display,
			ConceptClassDisplay: c.ClassDisplay(),
			IsSet:               c.Set,
			CreatedBy:           actor,
		}
		if rec.DisplayName == "" {
			rec.DisplayName = name
		}

		if err := s.repo.Upsert(ctx, rec); err != nil {
			// Upserts are independent units: one failure must not block
			// the rest of the run.
			s.logger.Error().Err(err).Str("uuid", c.UUID).Msg("concept upsert failed")
			summary.Skipped++
			continue
		}
		summary.Count++
	}

	s.logger.Info().
		Int("synced", summary.Count).
		Int("skipped", summary.Skipped).
		Str("actor", actor).
		Msg("concept sync complete")
	return summary, nil
}

// ListSynced returns locally persisted concept records.
func (s *Service) ListSynced(ctx context.Context, limit, offset int) ([]*LocalConceptRecord, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
