package concept

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/openmrs"
)

// mockRepo is an in-memory Repository keyed by uuid.
type mockRepo struct {
	mu      sync.Mutex
	records map[string]*LocalConceptRecord
	upserts int
	failFor map[string]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		records: make(map[string]*LocalConceptRecord),
		failFor: make(map[string]bool),
	}
}

func (r *mockRepo) Upsert(_ context.Context, rec *LocalConceptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.failFor[rec.UUID] {
		return fmt.Errorf("storage unavailable")
	}
	cp := *rec
	r.records[rec.UUID] = &cp
	return nil
}

func (r *mockRepo) GetByUUID(_ context.Context, uuid string) (*LocalConceptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[uuid]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return rec, nil
}

func (r *mockRepo) List(_ context.Context, limit, offset int) ([]*LocalConceptRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*LocalConceptRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// syncFixture wires a source that mimics a small orderables tree:
//
//	All Orderables
//	├── CBC panel (hgb, wbc)
//	└── Glucose
func syncFixture() *mockSource {
	src := newMockSource()
	src.search = []openmrs.Concept{
		{UUID: "root", Display: "All Orderables", Set: true},
	}
	src.addSet("root", "cbc", "glucose")
	src.addSet("cbc", "hgb", "wbc")
	src.addLeaf("glucose")
	src.addLeaf("hgb")
	src.addLeaf("wbc")
	src.dictionary = []openmrs.Concept{
		labSet("cbc", "Complete Blood Count", "hgb", "wbc"),
		labTest("glucose", "Glucose"),
		labTest("hgb", "Hemoglobin"),
		labTest("wbc", "White Blood Cells"),
		labTest("unrelated", "Unrelated Concept"),
	}
	return src
}

func TestSync_FullPipeline(t *testing.T) {
	src := syncFixture()
	repo := newMockRepo()
	svc := NewService(src, repo, "All Orderables", 2, zerolog.Nop())

	summary, err := svc.Sync(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Panel + glucose. Panel members are covered by the panel; the
	// out-of-tree concept is filtered by the allowed closure.
	if summary.Count != 2 {
		t.Fatalf("expected 2 synced, got %d", summary.Count)
	}
	if summary.Panels != 1 {
		t.Errorf("expected 1 panel, got %d", summary.Panels)
	}
	if _, ok := repo.records["cbc"]; !ok {
		t.Error("panel record missing")
	}
	if _, ok := repo.records["glucose"]; !ok {
		t.Error("standalone record missing")
	}
	if _, ok := repo.records["unrelated"]; ok {
		t.Error("out-of-tree concept must not be persisted")
	}
	if repo.records["cbc"].CreatedBy != "admin" {
		t.Errorf("expected actor attribution, got %q", repo.records["cbc"].CreatedBy)
	}
}

func TestSync_Idempotent(t *testing.T) {
	src := syncFixture()
	repo := newMockRepo()
	svc := NewService(src, repo, "All Orderables", 2, zerolog.Nop())

	first, err := svc.Sync(context.Background(), "admin")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Sync(context.Background(), "admin")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Count != second.Count {
		t.Errorf("runs diverged: %d vs %d", first.Count, second.Count)
	}
	if len(repo.records) != first.Count {
		t.Errorf("expected %d records after re-sync, got %d", first.Count, len(repo.records))
	}
}

func TestSync_RootSetNotFound(t *testing.T) {
	src := newMockSource()
	src.search = []openmrs.Concept{
		{UUID: "similar", Display: "All Orderables Legacy", Set: true},
	}

	svc := NewService(src, newMockRepo(), "All Orderables", 1, zerolog.Nop())
	_, err := svc.Sync(context.Background(), "admin")
	if !errors.Is(err, ErrRootSetNotFound) {
		t.Fatalf("expected ErrRootSetNotFound, got %v", err)
	}
}

func TestSync_RootSetSkipsRetiredAndNonSetCandidates(t *testing.T) {
	src := syncFixture()
	src.search = []openmrs.Concept{
		{UUID: "retired-root", Display: "All Orderables", Set: true, Retired: true},
		{UUID: "not-a-set", Display: "All Orderables"},
		{UUID: "root", Display: "all orderables", Set: true},
	}

	repo := newMockRepo()
	svc := NewService(src, repo, "All Orderables", 1, zerolog.Nop())
	if _, err := svc.Sync(context.Background(), "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.records["cbc"]; !ok {
		t.Error("expected sync keyed off the active case-insensitive match")
	}
}

func TestSync_DictionaryFailureAborts(t *testing.T) {
	src := syncFixture()
	src.failList = true

	repo := newMockRepo()
	svc := NewService(src, repo, "All Orderables", 1, zerolog.Nop())
	if _, err := svc.Sync(context.Background(), "admin"); err == nil {
		t.Fatal("expected dictionary failure to abort the run")
	}
	if repo.upserts != 0 {
		t.Errorf("nothing should be persisted on abort, got %d upserts", repo.upserts)
	}
}

func TestSync_UpsertFailureContinues(t *testing.T) {
	src := syncFixture()
	repo := newMockRepo()
	repo.failFor["cbc"] = true

	svc := NewService(src, repo, "All Orderables", 1, zerolog.Nop())
	summary, err := svc.Sync(context.Background(), "admin")
	if err != nil {
		t.Fatalf("one upsert failing must not fail the run: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("expected 1 synced, got %d", summary.Count)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", summary.Skipped)
	}
	if _, ok := repo.records["glucose"]; !ok {
		t.Error("records after the failed one must still be written")
	}
}

func TestSync_SkipsUnnamedConcept(t *testing.T) {
	src := syncFixture()
	src.dictionary = append(src.dictionary, openmrs.Concept{UUID: "nameless"})
	src.addLeaf("nameless")
	// Pull the nameless concept into the allowed closure.
	src.details["root"].SetMembers = append(src.details["root"].SetMembers, openmrs.SetMember{UUID: "nameless"})

	repo := newMockRepo()
	svc := NewService(src, repo, "All Orderables", 1, zerolog.Nop())
	summary, err := svc.Sync(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected the unnamed concept skipped, got %d", summary.Skipped)
	}
	if _, ok := repo.records["nameless"]; ok {
		t.Error("unnamed concept must not be persisted")
	}
}

func TestListSynced_LimitClamping(t *testing.T) {
	repo := newMockRepo()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("c-%d", i)
		repo.records[id] = &LocalConceptRecord{UUID: id, DisplayName: id}
	}
	svc := NewService(newMockSource(), repo, "All Orderables", 1, zerolog.Nop())

	records, total, err := svc.ListSynced(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(records) != 5 {
		t.Errorf("expected all 5 under the default limit, got %d/%d", len(records), total)
	}

	records, _, err = svc.ListSynced(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}
