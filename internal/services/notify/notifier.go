package notify

import (
	"context"
	"strings"
	"time"

	"TokenWatch/internal/domain/models"
	whttp "TokenWatch/pkg/http"
	"TokenWatch/pkg/logger"
)

// Notifier pushes alerts and trade confirmations to an external webhook.
// Delivery is best effort: failures are logged and swallowed so the pipeline
// never blocks on a dead notifier.
type Notifier struct {
	http    *whttp.Client
	baseURL string
	log     *logger.Logger
}

func New(baseURL string, timeout time.Duration, log *logger.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		http:    whttp.NewClient(whttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Enabled reports whether a webhook endpoint is configured.
func (n *Notifier) Enabled() bool { return n.baseURL != "" }

// PostAlert delivers an alert to the webhook.
func (n *Notifier) PostAlert(ctx context.Context, a models.Alert) {
	n.post(ctx, "/alerts", a)
}

// PostTradeConfirm delivers a simulated-trade confirmation.
func (n *Notifier) PostTradeConfirm(ctx context.Context, trade interface{}) {
	n.post(ctx, "/trades/confirm", trade)
}

func (n *Notifier) post(ctx context.Context, path string, body interface{}) {
	if !n.Enabled() {
		return
	}
	err := n.http.SendAndParse(ctx, &whttp.RequestOptions{
		Method: whttp.MethodPost,
		URL:    n.baseURL + path,
		Body:   body,
	}, nil)
	if err != nil {
		n.log.Warn("notifier delivery failed", logger.String("path", path), logger.Error(err))
	}
}
