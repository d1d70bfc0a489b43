package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/config"
	"github.com/arxwatch/arxwatch/internal/paper"
)

const serverChanURL = "https://sctapi.ftqq.com/%s.send"

// WebhookNotifier pushes digests to ServerChan or a WeCom group bot.
type WebhookNotifier struct {
	cfg    config.WebhookConfig
	client *http.Client
	logger *zap.Logger
}

func NewWebhookNotifier(cfg config.WebhookConfig, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, papers []paper.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	text := renderMarkdown(papers)
	title := fmt.Sprintf("arxwatch: %d relevant papers", len(papers))

	switch n.cfg.Type {
	case "serverchan":
		return n.sendServerChan(ctx, title, text)
	case "wecom":
		return n.sendWecom(ctx, text)
	default:
		return fmt.Errorf("notify: unsupported webhook type %q", n.cfg.Type)
	}
}

func (n *WebhookNotifier) sendServerChan(ctx context.Context, title, text string) error {
	endpoint := fmt.Sprintf(serverChanURL, n.cfg.ServerChanKey)
	form := url.Values{"title": {title}, "desp": {text}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify: serverchan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return n.do(req, "serverchan")
}

func (n *WebhookNotifier) sendWecom(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": text},
	})
	if err != nil {
		return fmt.Errorf("notify: wecom payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WecomWebhook,
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: wecom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return n.do(req, "wecom")
}

func (n *WebhookNotifier) do(req *http.Request, kind string) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: %s push: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: %s push: status %d", kind, resp.StatusCode)
	}

	n.logger.Info("sent webhook digest", zap.String("type", kind))
	return nil
}

func renderMarkdown(papers []paper.Paper) string {
	var b strings.Builder
	for _, p := range papers {
		score := 0.0
		if p.RelevanceScore != nil {
			score = *p.RelevanceScore
		}
		fmt.Fprintf(&b, "**[%s](%s)** (%.2f)\n\n", p.Title, p.Link, score)
		if p.RelevanceReason != "" {
			fmt.Fprintf(&b, "> %s\n\n", p.RelevanceReason)
		}
	}
	return b.String()
}
