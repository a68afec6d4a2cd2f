package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"hero-manager/internal/config"
	"hero-manager/internal/constants"
)

// BattleEvent is the webhook payload sent after every arena battle.
type BattleEvent struct {
	BattleID          string    `json:"battleId"`
	ChallengerID      string    `json:"challengerId"`
	Challenger        string    `json:"challenger"`
	DefenderID        string    `json:"defenderId"`
	Defender          string    `json:"defender"`
	Winner            string    `json:"winner"`
	Rounds            int       `json:"rounds"`
	EnergyCost        int       `json:"energyCost"`
	IsReturnChallenge bool      `json:"isReturnChallenge"`
	Seed              int64     `json:"seed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// WebhookNotifier posts battle events to an external URL. A notifier without
// a URL is disabled and every call is a no-op.
type WebhookNotifier struct {
	url    string
	client *fasthttp.Client
}

func NewWebhookNotifier(cfg *config.Config) *WebhookNotifier {
	return &WebhookNotifier{
		url: cfg.WebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.WebhookTimeout,
			WriteTimeout:        constants.WebhookTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

func (n *WebhookNotifier) NotifyBattle(ctx context.Context, event BattleEvent) error {
	if !n.Enabled() {
		return nil
	}
	return doPost(ctx, n.client, n.url, event)
}

func doPost[T any](ctx context.Context, client *fasthttp.Client, url string, payload T) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return err
		}
	} else {
		if err := client.DoTimeout(req, resp, constants.WebhookTimeout); err != nil {
			return err
		}
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("webhook error: %d", code)
	}
	return nil
}
