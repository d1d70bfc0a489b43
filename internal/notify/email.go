// Package notify delivers relevant-paper digests over email and push
// webhooks.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/config"
	"github.com/arxwatch/arxwatch/internal/paper"
)

// Notifier delivers a digest of relevant papers. Delivery is
// best-effort: the agent marks papers sent only after a nil return.
type Notifier interface {
	Send(ctx context.Context, papers []paper.Paper) error
}

type EmailNotifier struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

func (n *EmailNotifier) Send(ctx context.Context, papers []paper.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	subject := fmt.Sprintf("arxwatch: %d relevant papers", len(papers))
	body := renderDigest(papers)

	msg := strings.Join([]string{
		"From: " + n.cfg.SenderEmail,
		"To: " + n.cfg.ReceiverEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPServer, n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.SenderEmail, n.cfg.SenderPassword, n.cfg.SMTPServer)

	if err := smtp.SendMail(addr, auth, n.cfg.SenderEmail,
		[]string{n.cfg.ReceiverEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}

	n.logger.Info("sent email digest",
		zap.Int("papers", len(papers)),
		zap.String("to", n.cfg.ReceiverEmail))
	return nil
}

func renderDigest(papers []paper.Paper) string {
	var b strings.Builder
	b.WriteString("<h2>Relevant papers</h2>\n")
	for _, p := range papers {
		score := 0.0
		if p.RelevanceScore != nil {
			score = *p.RelevanceScore
		}
		fmt.Fprintf(&b, "<h3><a href=%q>%s</a></h3>\n", p.Link, p.Title)
		fmt.Fprintf(&b, "<p><b>Score:</b> %.2f | <b>Authors:</b> %s | <b>Categories:</b> %s</p>\n",
			score, strings.Join(p.Authors, ", "), strings.Join(p.Categories, ", "))
		if p.RelevanceReason != "" {
			fmt.Fprintf(&b, "<p><i>%s</i></p>\n", p.RelevanceReason)
		}
		fmt.Fprintf(&b, "<p>%s</p>\n<hr>\n", p.Summary)
	}
	return b.String()
}
