package models

// Signal kinds produced by the engine and the worker handlers.
const (
	SignalPump           = "pump"
	SignalDump           = "dump"
	SignalEntry          = "entry"
	SignalExit           = "exit"
	SignalPattern        = "pattern"
	SignalWhaleIn        = "whale_in"
	SignalListing        = "listing"
	SignalSocial         = "social_signal"
	SignalParserJob      = "parser_job"
	SignalChainEvent     = "chain_event"
	SignalTradeSimulated = "trade_simulated"
)

// Signal is one derived market event. Immutable once produced; ordering
// within one engine computation follows candle index order.
type Signal struct {
	Kind     string                 `json:"kind"`
	T        int64                  `json:"t"`
	Asset    string                 `json:"asset,omitempty"`
	Price    float64                `json:"price,omitempty"`
	Strength float64                `json:"strength,omitempty"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

// EngineParams tunes the signal engine thresholds.
type EngineParams struct {
	PumpJumpPct   float64 `json:"pumpJumpPct"`
	DumpDropPct   float64 `json:"dumpDropPct"`
	RSIOverbought float64 `json:"rsiOverbought"`
	RSIOversold   float64 `json:"rsiOversold"`
}

// DefaultEngineParams returns the standard thresholds.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		PumpJumpPct:   5,
		DumpDropPct:   5,
		RSIOverbought: 75,
		RSIOversold:   30,
	}
}

// Normalize fills zero-valued fields with defaults.
func (p EngineParams) Normalize() EngineParams {
	def := DefaultEngineParams()
	if p.PumpJumpPct <= 0 {
		p.PumpJumpPct = def.PumpJumpPct
	}
	if p.DumpDropPct <= 0 {
		p.DumpDropPct = def.DumpDropPct
	}
	if p.RSIOverbought <= 0 {
		p.RSIOverbought = def.RSIOverbought
	}
	if p.RSIOversold <= 0 {
		p.RSIOversold = def.RSIOversold
	}
	return p
}
