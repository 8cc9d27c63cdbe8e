package models

// Candle is one OHLCV bar for a fixed interval. Wire field names follow the
// ingest format: t is unix seconds, sequences are sorted ascending by t.
type Candle struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}
