package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/core/normalize"
	"github.com/rl1809/things-api/internal/core/validate"
	"github.com/rl1809/things-api/internal/port"
)

const collectionName = "things"

// ErrorKind classifies a failed operation for the dispatch layer.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorInput
	ErrorUnavailable
	ErrorValidation
	ErrorNotFound
	ErrorPersistence
)

// Result is the uniform outcome of every operation. A failing result
// always carries a non-empty message; a succeeding one carries the
// requested items (possibly empty for searches and missing ids).
type Result struct {
	Items   []domain.Thing
	Kind    ErrorKind
	Message string
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Kind == ErrorNone
}

func fail(kind ErrorKind, format string, args ...any) Result {
	return Result{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ListOptions are the raw, caller-supplied search options. Skip and Limit
// stay textual so malformed values surface as input errors rather than
// silent zeroes.
type ListOptions struct {
	Skip       string
	Limit      string
	SearchTerm string
}

// ThingService orchestrates validation, normalization and the store for
// the four resource operations. It holds no state of its own between
// calls.
type ThingService struct {
	store port.DocumentStore
}

func NewThingService(store port.DocumentStore) *ThingService {
	return &ThingService{store: store}
}

// List searches the collection. The term matches name or description,
// case-insensitively, as a contains match; an empty term matches
// everything.
func (s *ThingService) List(ctx context.Context, opts ListOptions) Result {
	limit, err := parseOption(opts.Limit)
	if err != nil {
		return fail(ErrorInput, "limit %s is not a number", opts.Limit)
	}
	skip, err := parseOption(opts.Skip)
	if err != nil {
		return fail(ErrorInput, "skip %s is not a number", opts.Skip)
	}

	term := "%"
	if opts.SearchTerm != "" {
		term = "%" + opts.SearchTerm + "%"
	}
	q := port.Query{
		Term:  term,
		Skip:  skip,
		Limit: limit,
	}

	coll, err := s.store.Collection(ctx, collectionName)
	if err != nil {
		return unavailable(err)
	}

	cursor, err := coll.Find(ctx, q)
	if err != nil {
		return fail(ErrorPersistence, "search failed: %v", err)
	}
	defer cursor.Close()

	items := []domain.Thing{}
	for {
		doc, ok := cursor.Next()
		if !ok {
			break
		}
		items = append(items, *doc)
	}
	if err := cursor.Err(); err != nil {
		return fail(ErrorPersistence, "search failed: %v", err)
	}

	return Result{Items: items}
}

// Get fetches a single document by id. A missing id yields an empty
// result with no error; errors are reserved for malformed input and an
// unreachable store.
func (s *ThingService) Get(ctx context.Context, id string) Result {
	key, ok := parseID(id)
	if !ok {
		return fail(ErrorInput, "please provide a valid numeric ID to this API call")
	}

	coll, err := s.store.Collection(ctx, collectionName)
	if err != nil {
		return unavailable(err)
	}

	// a missing id and a failed lookup share one canonical shape: an
	// empty result set, never an error
	doc, err := coll.FindOne(ctx, key)
	if err != nil {
		return Result{Items: []domain.Thing{}}
	}

	return Result{Items: []domain.Thing{*doc}}
}

// Create runs the full pipeline (consolidate, validate, round) and inserts
// the document. The store assigns the id and both concurrency tokens.
func (s *ThingService) Create(ctx context.Context, in domain.ThingInput) Result {
	thing, res := s.prepare(in)
	if !res.OK() {
		return res
	}

	coll, err := s.store.Collection(ctx, collectionName)
	if err != nil {
		return unavailable(err)
	}

	if err := coll.Insert(ctx, thing); err != nil {
		return fail(ErrorPersistence, "insert failed: %v", err)
	}

	return Result{Items: []domain.Thing{*thing}}
}

// Update applies the same pipeline as Create against an existing id. The
// id is preserved; the store assigns fresh tokens.
func (s *ThingService) Update(ctx context.Context, id string, in domain.ThingInput) Result {
	key, ok := parseID(id)
	if !ok {
		return fail(ErrorInput, "please provide a valid numeric ID to this API call")
	}

	thing, res := s.prepare(in)
	if !res.OK() {
		return res
	}

	coll, err := s.store.Collection(ctx, collectionName)
	if err != nil {
		return unavailable(err)
	}

	thing.ID = key
	if err := coll.Replace(ctx, key, thing); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fail(ErrorNotFound, "cannot find a document with id %d", key)
		}
		return fail(ErrorPersistence, "update failed: %v", err)
	}

	return Result{Items: []domain.Thing{*thing}}
}

// Delete removes the document with the given id.
func (s *ThingService) Delete(ctx context.Context, id string) Result {
	key, ok := parseID(id)
	if !ok {
		return fail(ErrorInput, "please provide a valid numeric ID to this API call")
	}

	coll, err := s.store.Collection(ctx, collectionName)
	if err != nil {
		return unavailable(err)
	}

	if err := coll.Remove(ctx, key); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fail(ErrorNotFound, "cannot find a document with id %d", key)
		}
		return fail(ErrorPersistence, "delete failed: %v", err)
	}

	return Result{}
}

// prepare runs consolidation, the validation chain and price rounding,
// returning the typed entity ready for the store. Validation failures stop
// the pipeline before any store call.
func (s *ThingService) prepare(in domain.ThingInput) (*domain.Thing, Result) {
	in.Stock = normalize.ConsolidateStock(in.Stock)

	if field, ok := validate.RequiredFields(in); !ok {
		return nil, fail(ErrorValidation, "required field %s is missing", field)
	}
	if !validate.AtLeastOneWarehouse(in.Stock) {
		return nil, fail(ErrorValidation, "at least one warehouse with a valid name is required")
	}
	if !validate.Available(*in.Available) {
		return nil, fail(ErrorValidation, "available is not a valid date: %s", *in.Available)
	}
	if !validate.Price(in.Price.String()) {
		return nil, fail(ErrorValidation, "price must be a number in the range [0.10, 100000.00) with at most 2 decimal places")
	}
	if !validate.WarehouseAndQuantity(in.Stock) {
		return nil, fail(ErrorValidation, "every stock entry needs a positive whole-number quantity")
	}

	price, err := decimal.NewFromString(in.Price.String())
	if err != nil {
		// unreachable after validation, kept as a guard
		return nil, fail(ErrorValidation, "price is not a number: %s", in.Price.String())
	}

	available, _ := time.Parse("2006-01-02", *in.Available)

	thing := &domain.Thing{
		Name:      *in.Name,
		Category:  *in.Category,
		Available: available,
		Price:     normalize.Closest99Cent(price),
		Stock:     make([]domain.StockEntry, 0, len(in.Stock)),
	}
	if in.Description != nil {
		thing.Description = *in.Description
	}

	for _, entry := range in.Stock {
		qty, _ := decimal.NewFromString(entry.Quantity.String())
		thing.Stock = append(thing.Stock, domain.StockEntry{
			Warehouse: entry.Warehouse,
			Quantity:  int(qty.IntPart()),
		})
	}

	return thing, Result{}
}

func unavailable(err error) Result {
	return fail(ErrorUnavailable, "unable to access the %s collection: %v", collectionName, err)
}

func parseOption(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return strconv.Atoi(text)
}

func parseID(id string) (int64, bool) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return key, true
}
