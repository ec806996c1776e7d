package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/things-api/internal/hexid"
)

// availableLayout is the wire format for the availability date.
const availableLayout = "2006-01-02"

// Thing is a stored catalog entry. ID and Metadata are assigned by the
// store on every write; the rest comes from the caller after validation
// and normalization.
type Thing struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Available   time.Time
	Price       decimal.Decimal
	Stock       []StockEntry
	Metadata    Metadata
}

// StockEntry is one warehouse's share of a Thing's stock. After
// normalization a Thing holds at most one entry per warehouse.
type StockEntry struct {
	Warehouse string `json:"warehouse"`
	Quantity  int    `json:"quantity"`
}

// Metadata carries the store-assigned concurrency tokens. Etag changes on
// every mutation, Asof is the logical timestamp of the last write. Both are
// opaque bytes internally and hex strings on the wire.
type Metadata struct {
	Etag []byte
	Asof []byte
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Etag string `json:"etag"`
		Asof string `json:"asof"`
	}{
		Etag: hexid.Encode(m.Etag),
		Asof: hexid.Encode(m.Asof),
	})
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var wire struct {
		Etag string `json:"etag"`
		Asof string `json:"asof"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	etag, err := hexid.Decode(wire.Etag)
	if err != nil {
		return fmt.Errorf("decode etag: %w", err)
	}
	asof, err := hexid.Decode(wire.Asof)
	if err != nil {
		return fmt.Errorf("decode asof: %w", err)
	}
	m.Etag = etag
	m.Asof = asof
	return nil
}

// thingWire is the JSON shape shared by responses and stored documents.
// Price travels as a bare number and Available as a YYYY-MM-DD string.
type thingWire struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Available   string          `json:"available"`
	Price       json.RawMessage `json:"price"`
	Stock       []StockEntry    `json:"stock"`
	Metadata    *Metadata       `json:"metadata,omitempty"`
}

func (t Thing) MarshalJSON() ([]byte, error) {
	wire := thingWire{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Description: t.Description,
		Available:   t.Available.Format(availableLayout),
		Price:       json.RawMessage(t.Price.String()),
		Stock:       t.Stock,
	}
	if len(t.Metadata.Etag) > 0 || len(t.Metadata.Asof) > 0 {
		md := t.Metadata
		wire.Metadata = &md
	}
	return json.Marshal(wire)
}

func (t *Thing) UnmarshalJSON(data []byte) error {
	var wire thingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	available, err := time.Parse(availableLayout, wire.Available)
	if err != nil {
		return fmt.Errorf("parse available date: %w", err)
	}
	price, err := decimal.NewFromString(string(wire.Price))
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}

	t.ID = wire.ID
	t.Name = wire.Name
	t.Category = wire.Category
	t.Description = wire.Description
	t.Available = available
	t.Price = price
	t.Stock = wire.Stock
	if wire.Metadata != nil {
		t.Metadata = *wire.Metadata
	} else {
		t.Metadata = Metadata{}
	}
	return nil
}
