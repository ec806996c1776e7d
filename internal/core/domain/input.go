package domain

import "encoding/json"

// ThingInput is the raw request body for create and update calls. Fields
// stay in their textual form so the validation pipeline can distinguish
// absent values from malformed ones before anything is typed.
type ThingInput struct {
	Name        *string      `json:"name"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Available   *string      `json:"available"`
	Price       *json.Number `json:"price"`
	Stock       []StockInput `json:"stock"`
}

// StockInput is one raw stock entry. Quantity is kept textual: duplicate
// warehouse entries are summed before validation, and the summed value is
// what the quantity rule judges.
type StockInput struct {
	Warehouse string      `json:"warehouse"`
	Quantity  json.Number `json:"quantity"`
}
