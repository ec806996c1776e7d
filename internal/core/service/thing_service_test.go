package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/port"
)

// Mock DocumentStore
type mockStore struct {
	coll        *mockCollection
	unavailable bool
}

func newMockStore() *mockStore {
	return &mockStore{coll: &mockCollection{docs: make(map[int64]domain.Thing)}}
}

func (s *mockStore) Collection(ctx context.Context, name string) (port.Collection, error) {
	if s.unavailable {
		return nil, port.ErrUnavailable
	}
	return s.coll, nil
}

func (s *mockStore) Close() error { return nil }

type mockCollection struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]domain.Thing
}

func (c *mockCollection) Find(ctx context.Context, q port.Query) (port.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	needle := strings.ToUpper(strings.Trim(q.Term, "%"))

	var items []domain.Thing
	skipped := 0
	for id := int64(1); id <= c.nextID; id++ {
		doc, ok := c.docs[id]
		if !ok {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToUpper(doc.Name), needle) &&
			!strings.Contains(strings.ToUpper(doc.Description), needle) {
			continue
		}
		if skipped < q.Skip {
			skipped++
			continue
		}
		items = append(items, doc)
		if q.Limit > 0 && len(items) == q.Limit {
			break
		}
	}
	return &mockCursor{items: items}, nil
}

func (c *mockCollection) FindOne(ctx context.Context, id int64) (*domain.Thing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &doc, nil
}

func (c *mockCollection) Insert(ctx context.Context, thing *domain.Thing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	thing.ID = c.nextID
	thing.Metadata = domain.Metadata{
		Etag: []byte{0xde, 0xad, byte(c.nextID)},
		Asof: []byte{0xbe, 0xef, byte(c.nextID)},
	}
	c.docs[thing.ID] = *thing
	return nil
}

func (c *mockCollection) Replace(ctx context.Context, id int64, thing *domain.Thing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return port.ErrNotFound
	}
	thing.ID = id
	thing.Metadata = domain.Metadata{
		Etag: []byte{0xaa, byte(id)},
		Asof: []byte{0xbb, byte(id)},
	}
	c.docs[id] = *thing
	return nil
}

func (c *mockCollection) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return port.ErrNotFound
	}
	delete(c.docs, id)
	return nil
}

type mockCursor struct {
	items  []domain.Thing
	pos    int
	closed bool
}

func (c *mockCursor) Next() (*domain.Thing, bool) {
	if c.pos >= len(c.items) {
		return nil, false
	}
	doc := c.items[c.pos]
	c.pos++
	return &doc, true
}

func (c *mockCursor) Err() error   { return nil }
func (c *mockCursor) Close() error { c.closed = true; return nil }

func strPtr(s string) *string { return &s }

func numPtr(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func validInput() domain.ThingInput {
	return domain.ThingInput{
		Name:        strPtr("A history of Carlo Rossi"),
		Category:    strPtr("books"),
		Description: strPtr("A fantastic book about everyone's favourite wine"),
		Available:   strPtr("2024-08-16"),
		Price:       numPtr("10.25"),
		Stock: []domain.StockInput{
			{Warehouse: "baltimore", Quantity: "11"},
			{Warehouse: "baltimore", Quantity: "11"},
		},
	}
}

func TestCreate_Pipeline(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	res := svc.Create(context.Background(), validInput())
	if !res.OK() {
		t.Fatalf("create failed: %s", res.Message)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}

	created := res.Items[0]
	if created.ID == 0 {
		t.Error("expected a store-assigned id")
	}
	if created.Price.String() != "9.99" {
		t.Errorf("expected price rounded to 9.99, got %s", created.Price)
	}
	if len(created.Stock) != 1 {
		t.Fatalf("expected consolidated stock, got %v", created.Stock)
	}
	if created.Stock[0].Warehouse != "baltimore" || created.Stock[0].Quantity != 22 {
		t.Errorf("expected {baltimore 22}, got %v", created.Stock[0])
	}
	if len(created.Metadata.Etag) == 0 || len(created.Metadata.Asof) == 0 {
		t.Error("expected store-assigned concurrency tokens")
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.ThingInput)
		message string
	}{
		{
			"missing price",
			func(in *domain.ThingInput) { in.Price = nil },
			"price",
		},
		{
			"missing name",
			func(in *domain.ThingInput) { in.Name = nil },
			"name",
		},
		{
			"no stock",
			func(in *domain.ThingInput) { in.Stock = nil },
			"warehouse",
		},
		{
			"empty warehouse name",
			func(in *domain.ThingInput) {
				in.Stock = []domain.StockInput{{Warehouse: "", Quantity: "1"}}
			},
			"warehouse",
		},
		{
			"bad date",
			func(in *domain.ThingInput) { in.Available = strPtr("not-a-date") },
			"date",
		},
		{
			"negative price",
			func(in *domain.ThingInput) { in.Price = numPtr("-1") },
			"0.10",
		},
		{
			"price too high",
			func(in *domain.ThingInput) { in.Price = numPtr("100000") },
			"0.10",
		},
		{
			"fractional quantity",
			func(in *domain.ThingInput) {
				in.Stock = []domain.StockInput{{Warehouse: "baltimore", Quantity: "1.2"}}
			},
			"quantity",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStore()
			svc := NewThingService(store)

			in := validInput()
			tc.mutate(&in)

			res := svc.Create(context.Background(), in)
			if res.OK() {
				t.Fatal("expected validation failure")
			}
			if res.Kind != ErrorValidation {
				t.Errorf("expected ErrorValidation, got %v", res.Kind)
			}
			if res.Message == "" {
				t.Error("expected a non-empty message")
			}
			if !strings.Contains(res.Message, tc.message) {
				t.Errorf("message %q does not mention %q", res.Message, tc.message)
			}
			if len(store.coll.docs) != 0 {
				t.Error("validation failure must not reach the store")
			}
		})
	}
}

func TestCreate_DuplicateWarehouseSumValidatedAfterConsolidation(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	// each entry is fractional; the consolidated sum is judged, and it is
	// a whole number here, so the request passes
	in := validInput()
	in.Stock = []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "1.5"},
		{Warehouse: "baltimore", Quantity: "1.5"},
	}

	res := svc.Create(context.Background(), in)
	if !res.OK() {
		t.Fatalf("expected consolidated sum 3 to pass, got: %s", res.Message)
	}
	if res.Items[0].Stock[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", res.Items[0].Stock[0].Quantity)
	}
}

func TestCreate_StoreUnavailable(t *testing.T) {
	store := newMockStore()
	store.unavailable = true
	svc := NewThingService(store)

	res := svc.Create(context.Background(), validInput())
	if res.OK() || res.Kind != ErrorUnavailable {
		t.Errorf("expected ErrorUnavailable, got %+v", res)
	}
}

func TestGet_ByID(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	created := svc.Create(context.Background(), validInput())
	if !created.OK() {
		t.Fatalf("create failed: %s", created.Message)
	}
	id := created.Items[0].ID

	res := svc.Get(context.Background(), "1")
	if !res.OK() {
		t.Fatalf("get failed: %s", res.Message)
	}
	if len(res.Items) != 1 || res.Items[0].ID != id {
		t.Errorf("expected item %d, got %v", id, res.Items)
	}
}

func TestGet_NotFoundIsEmptyResult(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	res := svc.Get(context.Background(), "4711")
	if !res.OK() {
		t.Fatalf("not-found must not be an error, got: %s", res.Message)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected empty items, got %v", res.Items)
	}
}

func TestGet_InvalidID(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	for _, id := range []string{"", "abc", "1.5"} {
		res := svc.Get(context.Background(), id)
		if res.OK() || res.Kind != ErrorInput {
			t.Errorf("Get(%q): expected ErrorInput, got %+v", id, res)
		}
	}
}

func TestList_Search(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	first := validInput()
	second := validInput()
	second.Name = strPtr("Corkscrew, waiter style")
	second.Description = strPtr("No wine book here")
	for _, in := range []domain.ThingInput{first, second} {
		if res := svc.Create(context.Background(), in); !res.OK() {
			t.Fatalf("create failed: %s", res.Message)
		}
	}

	// matches name, case-insensitively
	res := svc.List(context.Background(), ListOptions{SearchTerm: "carlo"})
	if !res.OK() {
		t.Fatalf("list failed: %s", res.Message)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "A history of Carlo Rossi" {
		t.Errorf("searchTerm carlo: got %v", res.Items)
	}

	// matches description too
	res = svc.List(context.Background(), ListOptions{SearchTerm: "WINE"})
	if !res.OK() {
		t.Fatalf("list failed: %s", res.Message)
	}
	if len(res.Items) != 2 {
		t.Errorf("searchTerm WINE: expected 2 items, got %d", len(res.Items))
	}

	// empty term matches everything
	res = svc.List(context.Background(), ListOptions{})
	if !res.OK() || len(res.Items) != 2 {
		t.Errorf("empty term: expected 2 items, got %+v", res)
	}

	// no matches is an empty result, not an error
	res = svc.List(context.Background(), ListOptions{SearchTerm: "zzz"})
	if !res.OK() || len(res.Items) != 0 {
		t.Errorf("no matches: expected empty success, got %+v", res)
	}
}

func TestList_Pagination(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	for i := 0; i < 5; i++ {
		if res := svc.Create(context.Background(), validInput()); !res.OK() {
			t.Fatalf("create failed: %s", res.Message)
		}
	}

	res := svc.List(context.Background(), ListOptions{Skip: "2", Limit: "2"})
	if !res.OK() {
		t.Fatalf("list failed: %s", res.Message)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].ID != 3 || res.Items[1].ID != 4 {
		t.Errorf("expected ids 3 and 4, got %d and %d", res.Items[0].ID, res.Items[1].ID)
	}
}

func TestList_BadOptions(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	res := svc.List(context.Background(), ListOptions{Skip: "abc"})
	if res.OK() || res.Kind != ErrorInput {
		t.Fatalf("expected ErrorInput, got %+v", res)
	}
	if !strings.Contains(res.Message, "skip") {
		t.Errorf("message %q does not name the offending option", res.Message)
	}

	res = svc.List(context.Background(), ListOptions{Limit: "many"})
	if res.OK() || res.Kind != ErrorInput {
		t.Fatalf("expected ErrorInput, got %+v", res)
	}
	if !strings.Contains(res.Message, "limit") {
		t.Errorf("message %q does not name the offending option", res.Message)
	}
}

func TestUpdate_ReplacesAndKeepsID(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	created := svc.Create(context.Background(), validInput())
	if !created.OK() {
		t.Fatalf("create failed: %s", created.Message)
	}
	id := created.Items[0].ID
	oldEtag := string(created.Items[0].Metadata.Etag)

	in := validInput()
	in.Name = strPtr("A history of Carlo Rossi, updated")
	in.Price = numPtr("19.12")

	res := svc.Update(context.Background(), "1", in)
	if !res.OK() {
		t.Fatalf("update failed: %s", res.Message)
	}

	updated := res.Items[0]
	if updated.ID != id {
		t.Errorf("id changed: %d -> %d", id, updated.ID)
	}
	if updated.Price.String() != "18.99" {
		t.Errorf("expected re-rounded price 18.99, got %s", updated.Price)
	}
	if string(updated.Metadata.Etag) == oldEtag {
		t.Error("expected a fresh etag after update")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	res := svc.Update(context.Background(), "4711", validInput())
	if res.OK() || res.Kind != ErrorNotFound {
		t.Errorf("expected ErrorNotFound, got %+v", res)
	}
}

func TestUpdate_RunsValidation(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	if res := svc.Create(context.Background(), validInput()); !res.OK() {
		t.Fatalf("create failed: %s", res.Message)
	}

	in := validInput()
	in.Price = numPtr("-1")

	res := svc.Update(context.Background(), "1", in)
	if res.OK() || res.Kind != ErrorValidation {
		t.Errorf("expected ErrorValidation, got %+v", res)
	}
}

func TestDelete(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	if res := svc.Create(context.Background(), validInput()); !res.OK() {
		t.Fatalf("create failed: %s", res.Message)
	}

	res := svc.Delete(context.Background(), "1")
	if !res.OK() {
		t.Fatalf("delete failed: %s", res.Message)
	}

	// deleting again is a not-found, never a persistence error
	res = svc.Delete(context.Background(), "1")
	if res.OK() || res.Kind != ErrorNotFound {
		t.Errorf("expected ErrorNotFound, got %+v", res)
	}
}

func TestDelete_InvalidID(t *testing.T) {
	store := newMockStore()
	svc := NewThingService(store)

	res := svc.Delete(context.Background(), "abc")
	if res.OK() || res.Kind != ErrorInput {
		t.Errorf("expected ErrorInput, got %+v", res)
	}
}
