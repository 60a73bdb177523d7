// Package notify sends run-completion emails through SendGrid. The notifier
// is optional: without an API key and recipient it stays disabled and every
// call is a no-op.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	to     *mail.Email
}

// NewEmailNotifier returns nil when apiKey or to is empty; a nil notifier is
// safe to call.
func NewEmailNotifier(apiKey, fromName, fromAddress, to string) *EmailNotifier {
	if apiKey == "" || to == "" {
		return nil
	}

	return &EmailNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		to:     mail.NewEmail("", to),
	}
}

func (n *EmailNotifier) Enabled() bool {
	return n != nil
}

// RunFinished emails the outcome of one finished run.
func (n *EmailNotifier) RunFinished(run *task.Run) error {
	if n == nil {
		return nil
	}

	subject, body := composeRunEmail(run)
	email := mail.NewSingleEmail(n.from, subject, n.to, body, body)
	response, err := n.client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	return nil
}

func composeRunEmail(run *task.Run) (subject, body string) {
	outcome := "completed"
	if run.Status == task.StatusFailed {
		outcome = "failed"
	}

	shortID := run.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	subject = fmt.Sprintf("ecoagent: %s run %s %s", run.Task.Type, shortID, outcome)

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s workflow) %s.\n", run.ID, run.Task.Type, outcome)
	fmt.Fprintf(&b, "Description: %s\n", run.Task.Description)
	fmt.Fprintf(&b, "Total cost: %.4f EUR\n", run.TotalCost)
	if run.StartedAt != nil && run.CompletedAt != nil {
		fmt.Fprintf(&b, "Duration: %s\n", run.CompletedAt.Sub(*run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", run.Error)
	}

	return subject, b.String()
}
