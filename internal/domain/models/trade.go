package models

// Trade is one tick from a market stream. T is milliseconds since epoch.
type Trade struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
	T      int64   `json:"t"`
}
