// Package email implements an SMTP-based session report notifier
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openfund/livetrader/internal/notifier"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) (*Email, error) {
	if host == "" || from == "" || len(to) == 0 {
		return nil, fmt.Errorf("email: host, from, and to are required")
	}
	if port <= 0 {
		port = 587
	}
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}, nil
}

func (e *Email) Name() string { return "email" }

// SendReport delivers a session report as an HTML email.
func (e *Email) SendReport(report notifier.Report) error {
	mode := "Live"
	if report.DryRun {
		mode = "Dry Run"
	}
	subject := fmt.Sprintf("Trading Session (%s): %d/%d trades",
		mode, report.SuccessfulTrades, report.TotalDecisions)
	return e.sendEmail(subject, formatReportHTML(report))
}

func formatReportHTML(report notifier.Report) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>Trading Session Report</h2>")
	mode := "LIVE"
	if report.DryRun {
		mode = "DRY RUN"
	}
	sb.WriteString(fmt.Sprintf("<p><strong>Mode:</strong> %s</p>", mode))
	sb.WriteString(fmt.Sprintf("<p><strong>Tickers:</strong> %s</p>", strings.Join(report.Tickers, ", ")))
	sb.WriteString(fmt.Sprintf("<p><strong>Trades:</strong> %d/%d, $%.2f executed</p>",
		report.SuccessfulTrades, report.TotalDecisions, report.ExecutedValue))
	sb.WriteString("<hr>")

	for _, o := range report.Outcomes {
		color := "#28a745"
		if o.Status != "executed" {
			color = "#dc3545"
		}
		sb.WriteString(fmt.Sprintf(`
<div style="margin: 10px 0;">
  <h3 style="color: %s;">%s - %s</h3>
  <p><strong>Quantity:</strong> %d @ $%.2f</p>
  <p><strong>Status:</strong> %s</p>
</div>
`,
			color,
			o.Ticker,
			strings.ToUpper(string(o.Action)),
			o.Quantity,
			o.Price,
			o.Status,
		))
		if o.Reason != "" {
			sb.WriteString(fmt.Sprintf("<p><small>%s</small></p>", o.Reason))
		}
		sb.WriteString("<hr>")
	}

	if report.CircuitBreaker {
		sb.WriteString(`<p style="color: #dc3545;"><strong>Circuit breaker active</strong></p>`)
	}
	if report.Error != "" {
		sb.WriteString(fmt.Sprintf(`<p style="color: #dc3545;">Error: %s</p>`, report.Error))
	}

	sb.WriteString(fmt.Sprintf("<p>Final: $%.2f cash, $%.2f total</p>",
		report.FinalCash, report.FinalAssets))
	sb.WriteString(fmt.Sprintf("<p><small>%s</small></p>",
		report.FinishedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString("</body></html>")

	return sb.String()
}

func (e *Email) sendEmail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	contentType := "text/plain"
	if strings.Contains(body, "<html>") {
		contentType = "text/html"
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		contentType,
		body,
	)

	return smtp.SendMail(addr, auth, e.from, e.to, []byte(msg))
}
