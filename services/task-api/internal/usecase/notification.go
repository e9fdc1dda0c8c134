package usecase

import (
	"context"
	"fmt"
	"html"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
)

// Notifier tells users about changes to their account.
type Notifier interface {
	Welcome(ctx context.Context, user *model.User) error
	Farewell(ctx context.Context, user *model.User) error
}

// MailSender sends an HTML email with a plain text alternative.
type MailSender interface {
	SendHTML(to []string, subject, htmlBody, textBody string) error
}

type mailNotifier struct {
	sender MailSender
}

// NewMailNotifier returns a Notifier that emails users through sender.
func NewMailNotifier(sender MailSender) Notifier {
	return &mailNotifier{sender: sender}
}

func (n *mailNotifier) Welcome(_ context.Context, user *model.User) error {
	name := html.EscapeString(user.Name)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Welcome to the task manager. Let us know how you get along with the app.</p>
	`, name)
	textBody := fmt.Sprintf("Hi %s,\n\nWelcome to the task manager. Let us know how you get along with the app.", user.Name)

	return n.sender.SendHTML([]string{user.Email}, "Thanks for joining in!", htmlBody, textBody)
}

func (n *mailNotifier) Farewell(_ context.Context, user *model.User) error {
	name := html.EscapeString(user.Name)
	htmlBody := fmt.Sprintf(`
		<p>Goodbye, %s.</p>
		<p>Your account and all of your tasks have been deleted.</p>
	`, name)
	textBody := fmt.Sprintf("Goodbye, %s.\n\nYour account and all of your tasks have been deleted.", user.Name)

	return n.sender.SendHTML([]string{user.Email}, "Sorry to see you go!", htmlBody, textBody)
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that sends nothing.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Welcome(context.Context, *model.User) error { return nil }
func (noopNotifier) Farewell(context.Context, *model.User) error { return nil }
