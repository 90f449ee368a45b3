package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// routeSession picks its page sequence by the URL it is asked to load
type routeSession struct {
	fakeSession
	pagesByURL map[string][]string
	failURL    string
}

func (s *routeSession) Navigate(ctx context.Context, url string) error {
	if url == s.failURL {
		return errors.New("net::ERR_CONNECTION_REFUSED")
	}
	s.pages = s.pagesByURL[url]
	s.index = 0
	return nil
}

type fakeSourceStore struct {
	sources   []*models.Source
	cursors   map[string]string
	cursorErr error
}

func newFakeSourceStore(sources ...*models.Source) *fakeSourceStore {
	return &fakeSourceStore{sources: sources, cursors: make(map[string]string)}
}

func (f *fakeSourceStore) SaveSource(ctx context.Context, source *models.Source) error { return nil }

func (f *fakeSourceStore) GetSource(ctx context.Context, id string) (*models.Source, error) {
	for _, source := range f.sources {
		if source.ID == id {
			return source, nil
		}
	}
	return nil, interfaces.ErrSourceNotFound
}

func (f *fakeSourceStore) ListSources(ctx context.Context) ([]*models.Source, error) {
	return f.sources, nil
}

func (f *fakeSourceStore) DeleteSource(ctx context.Context, id string) error { return nil }

func (f *fakeSourceStore) CountSources(ctx context.Context) (int, error) {
	return len(f.sources), nil
}

func (f *fakeSourceStore) UpdateCursor(ctx context.Context, sourceID, externalID string) error {
	if f.cursorErr != nil {
		return f.cursorErr
	}
	f.cursors[sourceID] = externalID
	return nil
}

type fakeSubscriberStore struct {
	subscribers []*models.Subscriber
}

func (f *fakeSubscriberStore) SaveSubscriber(ctx context.Context, subscriber *models.Subscriber) error {
	return nil
}

func (f *fakeSubscriberStore) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	return f.subscribers, nil
}

func (f *fakeSubscriberStore) CountSubscribers(ctx context.Context) (int, error) {
	return len(f.subscribers), nil
}

type fakeStorageManager struct {
	src  *fakeSourceStore
	post *fakePostingStore
	sub  *fakeSubscriberStore
}

func (f *fakeStorageManager) SourceStorage() interfaces.SourceStorage         { return f.src }
func (f *fakeStorageManager) PostingStorage() interfaces.PostingStorage       { return f.post }
func (f *fakeStorageManager) SubscriberStorage() interfaces.SubscriberStorage { return f.sub }
func (f *fakeStorageManager) Close() error                                    { return nil }

type fakePolicy struct {
	denied map[string]bool
}

func (f *fakePolicy) IsAllowed(ctx context.Context, url string) bool {
	return !f.denied[url]
}

type fakeNotifier struct {
	calls    int
	postings []*models.Posting
	err      error
}

func (f *fakeNotifier) NotifyNewPostings(ctx context.Context, subscribers []*models.Subscriber, postings []*models.Posting) error {
	f.calls++
	f.postings = append(f.postings, postings...)
	return f.err
}

type orchestratorFixture struct {
	storage  *fakeStorageManager
	policy   *fakePolicy
	notifier *fakeNotifier
	session  *routeSession
	orch     *Orchestrator
}

func newOrchestratorFixture(sources ...*models.Source) *orchestratorFixture {
	f := &orchestratorFixture{
		storage: &fakeStorageManager{
			src:  newFakeSourceStore(sources...),
			post: newFakePostingStore(),
			sub: &fakeSubscriberStore{subscribers: []*models.Subscriber{
				{Name: "Jane", Email: "jane@example.com"},
			}},
		},
		policy:   &fakePolicy{denied: make(map[string]bool)},
		notifier: &fakeNotifier{},
		session:  &routeSession{pagesByURL: make(map[string][]string)},
	}

	f.orch = NewOrchestrator(
		f.storage,
		f.policy,
		f.notifier,
		func(ctx context.Context) (interfaces.BrowserSession, error) { return f.session, nil },
		testScraperConfig(5),
		arbor.NewLogger(),
	)
	return f
}

func structuredSource(id, url string) *models.Source {
	return &models.Source{ID: id, Name: id + " Careers", URL: url, Structured: true}
}

func TestOrchestrator_RunCycle(t *testing.T) {
	alpha := structuredSource("alpha", "https://alpha.example.com/jobs")
	beta := structuredSource("beta", "https://beta.example.com/jobs")

	f := newOrchestratorFixture(alpha, beta)
	f.session.pagesByURL[alpha.URL] = []string{workdayPageHTML(false, "201", "200")}
	f.session.pagesByURL[beta.URL] = []string{workdayPageHTML(false, "301")}

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.TotalNew != 3 {
		t.Errorf("Expected 3 new postings, got %d", result.TotalNew)
	}
	if len(result.Postings) != 3 {
		t.Fatalf("Expected 3 postings in the result, got %d", len(result.Postings))
	}
	for i, externalID := range []string{"201", "200", "301"} {
		if result.Postings[i].ExternalID != externalID {
			t.Errorf("Posting %d: expected id %s, got %q", i, externalID, result.Postings[i].ExternalID)
		}
	}
	for _, sourceResult := range result.Sources {
		if sourceResult.Status != StatusOK {
			t.Errorf("Source %s: expected ok, got %s (%v)", sourceResult.SourceID, sourceResult.Status, sourceResult.Err)
		}
	}

	if f.storage.src.cursors["alpha"] != "201" {
		t.Errorf("Expected alpha cursor 201, got %q", f.storage.src.cursors["alpha"])
	}
	if f.storage.src.cursors["beta"] != "301" {
		t.Errorf("Expected beta cursor 301, got %q", f.storage.src.cursors["beta"])
	}
	// The in-memory sources track the persisted cursors
	if alpha.CursorID != "201" {
		t.Errorf("Expected alpha in-memory cursor 201, got %q", alpha.CursorID)
	}
	if beta.CursorID != "301" {
		t.Errorf("Expected beta in-memory cursor 301, got %q", beta.CursorID)
	}

	if f.notifier.calls != 1 {
		t.Errorf("Expected 1 notification, got %d", f.notifier.calls)
	}
	if len(f.notifier.postings) != 3 {
		t.Errorf("Expected 3 notified postings, got %d", len(f.notifier.postings))
	}
	if !f.session.closed {
		t.Error("Expected the browser session to be closed")
	}
}

func TestOrchestrator_SourceFailureIsIsolated(t *testing.T) {
	broken := structuredSource("broken", "https://broken.example.com/jobs")
	healthy := structuredSource("healthy", "https://healthy.example.com/jobs")

	f := newOrchestratorFixture(broken, healthy)
	f.session.failURL = broken.URL
	f.session.pagesByURL[healthy.URL] = []string{workdayPageHTML(false, "401")}

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Sources[0].Status != StatusFailed {
		t.Errorf("Expected broken source to fail, got %s", result.Sources[0].Status)
	}
	if result.Sources[1].Status != StatusOK {
		t.Errorf("Expected healthy source to succeed, got %s (%v)", result.Sources[1].Status, result.Sources[1].Err)
	}

	if _, updated := f.storage.src.cursors["broken"]; updated {
		t.Error("Failed source must not advance its cursor")
	}
	if f.storage.src.cursors["healthy"] != "401" {
		t.Errorf("Expected healthy cursor 401, got %q", f.storage.src.cursors["healthy"])
	}
}

func TestOrchestrator_PersistFailureBlocksCursor(t *testing.T) {
	source := structuredSource("acme", "https://acme.example.com/jobs")

	f := newOrchestratorFixture(source)
	f.session.pagesByURL[source.URL] = []string{workdayPageHTML(false, "501")}
	f.storage.post.insertErr = errors.New("disk full")

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Sources[0].Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", result.Sources[0].Status)
	}
	if _, updated := f.storage.src.cursors["acme"]; updated {
		t.Error("Cursor must not advance when persistence fails")
	}
	if f.notifier.calls != 0 {
		t.Errorf("Expected no notification, got %d", f.notifier.calls)
	}
}

func TestOrchestrator_PolicyDeniedSourceIsSkipped(t *testing.T) {
	source := structuredSource("walled", "https://walled.example.com/jobs")

	f := newOrchestratorFixture(source)
	f.policy.denied[source.URL] = true

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Sources[0].Status != StatusSkipped {
		t.Errorf("Expected skipped status, got %s", result.Sources[0].Status)
	}
	if result.TotalNew != 0 {
		t.Errorf("Expected no postings, got %d", result.TotalNew)
	}
}

func TestOrchestrator_UnroutableSourceIsSkipped(t *testing.T) {
	source := &models.Source{ID: "odd", Name: "Odd Portal", URL: "https://odd.example.com", Structured: false}

	f := newOrchestratorFixture(source)

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Sources[0].Status != StatusSkipped {
		t.Errorf("Expected skipped status, got %s", result.Sources[0].Status)
	}
	if result.Sources[0].Variant != models.VariantNone {
		t.Errorf("Expected no variant, got %s", result.Sources[0].Variant)
	}
}

func TestOrchestrator_NotifierFailureDoesNotFailCycle(t *testing.T) {
	source := structuredSource("acme", "https://acme.example.com/jobs")

	f := newOrchestratorFixture(source)
	f.session.pagesByURL[source.URL] = []string{workdayPageHTML(false, "601")}
	f.notifier.err = errors.New("smtp down")

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Sources[0].Status != StatusOK {
		t.Errorf("Expected ok status despite notifier failure, got %s", result.Sources[0].Status)
	}
	if f.storage.src.cursors["acme"] != "601" {
		t.Errorf("Expected cursor to advance, got %q", f.storage.src.cursors["acme"])
	}
}

func TestOrchestrator_CursorUpdateFailureIsPartial(t *testing.T) {
	source := structuredSource("acme", "https://acme.example.com/jobs")

	f := newOrchestratorFixture(source)
	f.session.pagesByURL[source.URL] = []string{workdayPageHTML(false, "701")}
	f.storage.src.cursorErr = errors.New("write conflict")

	result, err := f.orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Sources[0].Status != StatusPartial {
		t.Errorf("Expected partial status, got %s", result.Sources[0].Status)
	}
	// Postings were stored even though the cursor write failed
	if len(f.storage.post.inserted) != 1 {
		t.Errorf("Expected 1 stored posting, got %d", len(f.storage.post.inserted))
	}
	if source.CursorID != "" {
		t.Errorf("In-memory cursor must not advance on a failed write, got %q", source.CursorID)
	}
}
