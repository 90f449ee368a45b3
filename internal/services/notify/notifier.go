// -----------------------------------------------------------------------
// Email Notifier
// HTML-table digest of new postings, sent to all subscribers
// -----------------------------------------------------------------------

package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

const notificationSubject = "New job postings detected"

// EmailNotifier implements interfaces.Notifier over SMTP
type EmailNotifier struct {
	mailer *Mailer
	logger arbor.ILogger
}

// NewEmailNotifier creates an email notifier
func NewEmailNotifier(mailer *Mailer, logger arbor.ILogger) interfaces.Notifier {
	return &EmailNotifier{
		mailer: mailer,
		logger: logger,
	}
}

// NotifyNewPostings sends one digest email covering all new postings to the
// distinct subscriber addresses. An unconfigured mailer or empty recipient
// list logs and returns nil.
func (n *EmailNotifier) NotifyNewPostings(ctx context.Context, subscribers []*models.Subscriber, postings []*models.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	recipients := distinctEmails(subscribers)
	if len(recipients) == 0 {
		n.logger.Info().Int("postings", len(postings)).Msg("No subscriber addresses, skipping notification")
		return nil
	}

	if !n.mailer.IsConfigured() {
		n.logger.Warn().Msg("SMTP not configured, skipping notification")
		return nil
	}

	htmlBody := BuildHTMLBody(postings)
	textBody := buildTextBody(postings)

	if err := n.mailer.SendHTMLEmail(recipients, notificationSubject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.logger.Info().
		Int("postings", len(postings)).
		Int("recipients", len(recipients)).
		Msg("Notification email sent")

	return nil
}

// distinctEmails returns the de-duplicated, non-blank subscriber addresses
func distinctEmails(subscribers []*models.Subscriber) []string {
	seen := make(map[string]bool)
	var emails []string
	for _, subscriber := range subscribers {
		email := strings.ToLower(strings.TrimSpace(subscriber.Email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}

// BuildHTMLBody renders the postings as an HTML table. All field values are
// escaped; posting URLs become links.
func BuildHTMLBody(postings []*models.Posting) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<p>%d new job posting(s) found:</p>", len(postings)))
	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\" style=\"border-collapse:collapse\">")
	b.WriteString("<tr><th>Portal</th><th>Job Req ID</th><th>Position</th><th>Location</th><th>Job Link</th></tr>")

	for _, posting := range postings {
		b.WriteString("<tr>")
		b.WriteString("<td>" + html.EscapeString(posting.SourceName) + "</td>")
		b.WriteString("<td>" + html.EscapeString(posting.ExternalID) + "</td>")
		b.WriteString("<td>" + html.EscapeString(posting.Title) + "</td>")
		b.WriteString("<td>" + html.EscapeString(posting.Location) + "</td>")
		if posting.URL != "" {
			b.WriteString("<td><a href=\"" + html.EscapeString(posting.URL) + "\">View</a></td>")
		} else {
			b.WriteString("<td></td>")
		}
		b.WriteString("</tr>")
	}

	b.WriteString("</table></body></html>")
	return b.String()
}

// buildTextBody renders the postings as a plain-text fallback
func buildTextBody(postings []*models.Posting) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%d new job posting(s) found:\n\n", len(postings)))
	for _, posting := range postings {
		b.WriteString(fmt.Sprintf("- [%s] %s (%s)", posting.SourceName, posting.Title, posting.ExternalID))
		if posting.Location != "" {
			b.WriteString(" - " + posting.Location)
		}
		if posting.URL != "" {
			b.WriteString("\n  " + posting.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
