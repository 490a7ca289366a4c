package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indieinfra/hydrogen/storage/media"
)

type lookupReply struct {
	status int
	body   string
	err    error
}

// lookupGateway answers file lookups keyed by the search string, e.g. "id:42".
type lookupGateway struct {
	mu      sync.Mutex
	replies map[string]lookupReply
	queries []string
}

func (g *lookupGateway) Execute(_ context.Context, _ string, variables map[string]any) (int, []byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q, _ := variables["query"].(string)
	g.queries = append(g.queries, q)

	reply, ok := g.replies[q]
	if !ok {
		return http.StatusOK, []byte(`{"data":{"files":{"edges":[]}}}`), nil
	}
	return reply.status, []byte(reply.body), reply.err
}

func imageReply(id, url string) lookupReply {
	return lookupReply{
		status: http.StatusOK,
		body:   fmt.Sprintf(`{"data":{"files":{"edges":[{"node":{"__typename":"MediaImage","id":%q,"image":{"url":%q}}}]}}}`, id, url),
	}
}

func fileReply(id, url string) lookupReply {
	return lookupReply{
		status: http.StatusOK,
		body:   fmt.Sprintf(`{"data":{"files":{"edges":[{"node":{"__typename":"GenericFile","id":%q,"url":%q}}]}}}`, id, url),
	}
}

type recordingNotifier struct {
	records []*media.Record
}

func (n *recordingNotifier) MediaFileUpdated(_ context.Context, rec *media.Record) {
	n.records = append(n.records, rec.Clone())
}

// trackingStore counts saves and can fail them for chosen ids.
type trackingStore struct {
	*media.MemoryStore
	saves      []int64
	failSaveOn map[int64]bool
	pendingErr error
}

func (s *trackingStore) Save(ctx context.Context, rec *media.Record) error {
	s.saves = append(s.saves, rec.ID)
	if s.failSaveOn[rec.ID] {
		return errors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, rec)
}

func (s *trackingStore) Pending(ctx context.Context) ([]*media.Record, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	return s.MemoryStore.Pending(ctx)
}

func newTrackingStore(records ...*media.Record) *trackingStore {
	mem := media.NewMemoryStore()
	for _, r := range records {
		mem.Put(r)
	}
	return &trackingStore{MemoryStore: mem, failSaveOn: map[int64]bool{}}
}

func pending(id int64, externalID string) *media.Record {
	return &media.Record{ID: id, Filename: fmt.Sprintf("f%d", id), ExternalID: media.StringPtr(externalID)}
}

func TestRun_ResolvesMediaImage(t *testing.T) {
	store := newTrackingStore(pending(7, "gid://shopify/MediaImage/42"))
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:42": imageReply("gid://shopify/MediaImage/42", "https://cdn.example/cat.png"),
	}}
	notifier := &recordingNotifier{}

	report, err := NewJob(store, gw, notifier, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 1, report.Resolved)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{"id:42"}, gw.queries)

	rec, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, rec.ExternalURL)
	assert.Equal(t, "https://cdn.example/cat.png", *rec.ExternalURL)

	require.Len(t, notifier.records, 1)
	assert.Equal(t, int64(7), notifier.records[0].ID)
	assert.Equal(t, "https://cdn.example/cat.png", *notifier.records[0].ExternalURL)
}

func TestRun_ResolvesGenericFile(t *testing.T) {
	store := newTrackingStore(pending(3, "gid://shopify/GenericFile/5"))
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:5": fileReply("gid://shopify/GenericFile/5", "https://cdn.example/report.pdf"),
	}}

	report, err := NewJob(store, gw, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Resolved)

	rec, _ := store.Get(context.Background(), 3)
	assert.Equal(t, "https://cdn.example/report.pdf", *rec.ExternalURL)
}

func TestRun_StillProcessingLeavesRecordUntouched(t *testing.T) {
	store := newTrackingStore(pending(7, "gid://shopify/MediaImage/42"), pending(8, "gid://shopify/MediaImage/43"))
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:42": {status: http.StatusOK, body: `{"data":{"files":{"edges":[{"node":{"__typename":"MediaImage","id":"gid://shopify/MediaImage/42","image":null}}]}}}`},
	}}
	notifier := &recordingNotifier{}

	report, err := NewJob(store, gw, notifier, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Unresolved)
	assert.Empty(t, store.saves)
	assert.Empty(t, notifier.records)

	rec, _ := store.Get(context.Background(), 7)
	assert.Nil(t, rec.ExternalURL)
}

func TestRun_IsIdempotent(t *testing.T) {
	store := newTrackingStore(pending(7, "gid://shopify/MediaImage/42"))
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:42": imageReply("gid://shopify/MediaImage/42", "https://cdn.example/cat.png"),
	}}
	notifier := &recordingNotifier{}
	job := NewJob(store, gw, notifier, zerolog.Nop())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	second, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Pending)
	assert.Equal(t, []int64{7}, store.saves)
	assert.Len(t, notifier.records, 1)
	assert.Len(t, gw.queries, 1)
}

func TestRun_IsolatesFailures(t *testing.T) {
	store := newTrackingStore(
		pending(1, "gid://shopify/MediaImage/1"),
		pending(2, "gid://shopify/MediaImage/2"),
		pending(3, "gid://shopify/MediaImage/3"),
		pending(4, "gid://shopify/MediaImage/4"),
		pending(5, "gid://shopify/MediaImage/5"),
		pending(6, "gid://shopify/MediaImage/6"),
	)
	store.failSaveOn[6] = true

	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:1": {err: errors.New("connection reset")},
		"id:2": {status: http.StatusInternalServerError, body: `oops`},
		"id:3": {status: http.StatusOK, body: `{"errors":[{"message":"Throttled"}]}`},
		"id:4": {status: http.StatusOK, body: `{not json`},
		"id:5": imageReply("gid://shopify/MediaImage/5", "https://cdn.example/5.png"),
		"id:6": imageReply("gid://shopify/MediaImage/6", "https://cdn.example/6.png"),
	}}
	notifier := &recordingNotifier{}

	report, err := NewJob(store, gw, notifier, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{RunID: report.RunID, Pending: 6, Resolved: 1, Failed: 5}, report)
	assert.Len(t, gw.queries, 6, "every record is looked up exactly once")
	require.Len(t, notifier.records, 1)
	assert.Equal(t, int64(5), notifier.records[0].ID)

	rec, _ := store.Get(context.Background(), 6)
	assert.Nil(t, rec.ExternalURL)
}

func TestRun_ListFailureFailsRun(t *testing.T) {
	store := newTrackingStore()
	store.pendingErr = errors.New("db down")
	gw := &lookupGateway{}

	_, err := NewJob(store, gw, nil, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, gw.queries)
}

func TestRun_NeverTouchesResolvedRecords(t *testing.T) {
	resolved := &media.Record{ID: 9, ExternalID: media.StringPtr("gid://shopify/MediaImage/9"), ExternalURL: media.StringPtr("https://cdn.example/old.png")}
	local := &media.Record{ID: 10, Filename: "local.png"}
	store := newTrackingStore(resolved, local, pending(11, "gid://shopify/MediaImage/11"))
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:9":  imageReply("gid://shopify/MediaImage/9", "https://cdn.example/new.png"),
		"id:11": imageReply("gid://shopify/MediaImage/11", "https://cdn.example/11.png"),
	}}

	report, err := NewJob(store, gw, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, []string{"id:11"}, gw.queries)
	assert.Equal(t, []int64{11}, store.saves)

	rec, _ := store.Get(context.Background(), 9)
	assert.Equal(t, "https://cdn.example/old.png", *rec.ExternalURL)
}

func TestRun_StopsOnCancellation(t *testing.T) {
	store := newTrackingStore(pending(1, "gid://shopify/MediaImage/1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJob(store, &lookupGateway{}, nil, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookup(t *testing.T) {
	gw := &lookupGateway{replies: map[string]lookupReply{
		"id:42": imageReply("gid://shopify/MediaImage/42", "https://cdn.example/cat.png"),
		"id:50": {status: http.StatusUnauthorized, body: `{"errors":"Invalid API key"}`},
	}}
	job := NewJob(newTrackingStore(), gw, nil, zerolog.Nop())

	node, err := job.Lookup(context.Background(), "gid://shopify/MediaImage/42")
	require.NoError(t, err)
	assert.Equal(t, KindMediaImage, node.Kind)
	assert.Equal(t, "gid://shopify/MediaImage/42", node.ID)

	node, err = job.Lookup(context.Background(), "gid://shopify/MediaImage/77")
	require.NoError(t, err)
	assert.Nil(t, node)

	_, err = job.Lookup(context.Background(), "gid://shopify/MediaImage/50")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, http.StatusUnauthorized, lookupErr.StatusCode)
}
