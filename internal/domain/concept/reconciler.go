package concept

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/openmrs"
)

// ReconcileResult is the authoritative sync list derived from the full
// dictionary and the allowed-uuid closure. Panels and Standalone are
// disjoint by construction.
type ReconcileResult struct {
	Panels     []openmrs.Concept
	Standalone []openmrs.Concept
}

// Final returns panels followed by standalone concepts. No further
// dedup is needed: a panel is a set, a standalone concept is not.
func (r *ReconcileResult) Final() []openmrs.Concept {
	out := make([]openmrs.Concept, 0, len(r.Panels)+len(r.Standalone))
	out = append(out, r.Panels...)
	out = append(out, r.Standalone...)
	return out
}

// Reconciler decides which allowed concepts are synced as panels and
// which as standalone entries. Panel detail fetches are independent:
// one panel failing only empties that panel's member contribution.
type Reconciler struct {
	source  Source
	workers int
	logger  zerolog.Logger
}

// NewReconciler creates a reconciler. workers <= 0 expands panels
// sequentially.
func NewReconciler(source Source, workers int, logger zerolog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	return &Reconciler{source: source, workers: workers, logger: logger}
}

// panelExpansion is the per-panel fetch outcome. Failures are recorded,
// not propagated.
type panelExpansion struct {
	panel   openmrs.Concept
	members []string
	err     error
}

// Reconcile applies the standalone selection rule:
//
//  1. keep only concepts whose uuid is in allowed
//  2. partition into active sets and non-sets
//  3. panels = active sets classed LabSet
//  4. expand each panel to its active (non-retired) direct members
//  5. a non-set concept is standalone unless it is an active member of
//     some panel and is itself not retired
func (r *Reconciler) Reconcile(ctx context.Context, all []openmrs.Concept, allowed map[string]struct{}) (*ReconcileResult, error) {
	var allowedConcepts []openmrs.Concept
	for _, c := range all {
		if _, ok := allowed[c.UUID]; ok {
			allowedConcepts = append(allowedConcepts, c)
		}
	}

	var setConcepts, nonSetConcepts []openmrs.Concept
	for _, c := range allowedConcepts {
		switch {
		case c.Set && !c.Retired:
			setConcepts = append(setConcepts, c)
		case !c.Set:
			nonSetConcepts = append(nonSetConcepts, c)
		}
	}

	var panels []openmrs.Concept
	for _, c := range setConcepts {
		if c.ClassDisplay() == LabSetClass {
			panels = append(panels, c)
		}
	}

	panelMembers := r.expandPanels(ctx, panels)

	var standalone []openmrs.Concept
	for _, c := range nonSetConcepts {
		if _, isMember := panelMembers[c.UUID]; isMember && !c.Retired {
			// Active panel member: billed via its panel, not standalone.
			continue
		}
		standalone = append(standalone, c)
	}

	r.logger.Info().
		Int("allowed", len(allowedConcepts)).
		Int("panels", len(panels)).
		Int("standalone", len(standalone)).
		Msg("reconciled concept membership")

	return &ReconcileResult{Panels: panels, Standalone: standalone}, nil
}

// expandPanels fetches each panel's full detail concurrently and returns
// the union of active member uuids across all panels. Membership is
// re-fetched here rather than reusing the resolver's snapshot because
// panel contents can change between the two passes.
func (r *Reconciler) expandPanels(ctx context.Context, panels []openmrs.Concept) map[string]struct{} {
	results := make([]panelExpansion, len(panels))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for i, panel := range panels {
		wg.Add(1)
		go func(i int, panel openmrs.Concept) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			detail, err := r.source.GetConcept(ctx, panel.UUID)
			if err != nil {
				results[i] = panelExpansion{panel: panel, err: err}
				return
			}
			var members []string
			for _, m := range detail.SetMembers {
				if !m.Retired {
					members = append(members, m.UUID)
				}
			}
			results[i] = panelExpansion{panel: panel, members: members}
		}(i, panel)
	}
	wg.Wait()

	union := make(map[string]struct{})
	for _, res := range results {
		if res.err != nil {
			r.logger.Warn().
				Err(res.err).
				Str("panel_uuid", res.panel.UUID).
				Str("panel", res.panel.Display).
				Msg("panel detail fetch failed, skipping its members")
			continue
		}
		for _, uuid := range res.members {
			union[uuid] = struct{}{}
		}
	}
	return union
}
