package models

// AnalyzeRequest carries a candle window for on-demand signal computation.
// Candles may be empty; a short window simply yields no signals. Options
// override the engine defaults per request.
type AnalyzeRequest struct {
	Asset   string        `json:"asset"`
	Candles []Candle      `json:"candles"`
	Options *EngineParams `json:"options,omitempty"`
}

type AnalyzeResponse struct {
	Asset   string   `json:"asset,omitempty"`
	Signals []Signal `json:"signals"`
}

// AdviceRequest is forwarded verbatim to the configured advice provider.
type AdviceRequest struct {
	Prompt  string      `json:"prompt" validate:"required"`
	Context interface{} `json:"context,omitempty"`
}

type CreateAlertRequest struct {
	Title    string      `json:"title" validate:"required"`
	Severity string      `json:"severity" default:"info" validate:"oneof=info warn critical"`
	Source   string      `json:"source" default:"manual"`
	Message  string      `json:"message"`
	Payload  interface{} `json:"payload,omitempty"`
}

type StatusResponse struct {
	Environment string         `json:"environment"`
	Uptime      string         `json:"uptime"`
	Assets      []string       `json:"assets"`
	Subscribers int            `json:"subscribers"`
	Candles     map[string]int `json:"candles"`
}
