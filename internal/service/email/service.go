package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/resend/resend-go/v3"

	"portal-comments/internal/config"
)

type Service interface {
	SendCommentReceived(ctx context.Context, toEmail, content string) error
	SendOrganizationNotice(ctx context.Context, toEmails []string, datasetTitle, datasetURL, authorName, authorEmail, content string, createdAt time.Time) error
	SendCommentApproved(ctx context.Context, toEmail, username, datasetTitle, datasetURL, content string) error
	SendCommentDeleted(ctx context.Context, toEmail, subject, body string) error
}

type emailService struct {
	client *resend.Client
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &emailService{
		client: client,
		config: cfg,
	}
}

func (s *emailService) SendCommentReceived(ctx context.Context, toEmail, content string) error {
	subject := fmt.Sprintf("We received your comment - %s", s.config.SiteTitle)

	body := fmt.Sprintf(`
		<p>Thank you for taking part in the conversation on <strong>%s</strong>.</p>
		<p>Your comment has been received and will appear once a moderator approves it:</p>
		<blockquote style="border-left: 3px solid #d1d5db; margin: 16px 0; padding: 8px 16px; color: #374151;">%s</blockquote>
		<p>You will get another email when the comment is published.</p>`,
		html.EscapeString(s.config.SiteTitle),
		html.EscapeString(content),
	)

	return s.send([]string{toEmail}, subject, s.wrap(subject, body))
}

func (s *emailService) SendOrganizationNotice(ctx context.Context, toEmails []string, datasetTitle, datasetURL, authorName, authorEmail, content string, createdAt time.Time) error {
	subject := fmt.Sprintf("New comment on %s", datasetTitle)

	body := fmt.Sprintf(`
		<p>A new comment is awaiting moderation on
		<a href="%s" style="color: #2563eb;">%s</a>.</p>
		<div style="background-color: #f3f4f6; padding: 16px; border-radius: 8px; margin: 16px 0;">
			<div><strong>From:</strong> %s (%s)</div>
			<div><strong>Date:</strong> %s</div>
		</div>
		<blockquote style="border-left: 3px solid #d1d5db; margin: 16px 0; padding: 8px 16px; color: #374151;">%s</blockquote>`,
		datasetURL,
		html.EscapeString(datasetTitle),
		html.EscapeString(authorName),
		html.EscapeString(authorEmail),
		createdAt.Format("02/01/2006 - 15:04"),
		html.EscapeString(content),
	)

	return s.send(toEmails, subject, s.wrap(subject, body))
}

func (s *emailService) SendCommentApproved(ctx context.Context, toEmail, username, datasetTitle, datasetURL, content string) error {
	subject := fmt.Sprintf("Your comment has been published - %s", s.config.SiteTitle)

	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Your comment on <a href="%s" style="color: #2563eb;">%s</a> has been approved and is now visible:</p>
		<blockquote style="border-left: 3px solid #d1d5db; margin: 16px 0; padding: 8px 16px; color: #374151;">%s</blockquote>`,
		html.EscapeString(username),
		datasetURL,
		html.EscapeString(datasetTitle),
		html.EscapeString(content),
	)

	return s.send([]string{toEmail}, subject, s.wrap(subject, body))
}

func (s *emailService) SendCommentDeleted(ctx context.Context, toEmail, subject, body string) error {
	return s.send([]string{toEmail}, subject, s.wrap(subject, "<p>"+html.EscapeString(body)+"</p>"))
}

func (s *emailService) wrap(title, body string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>%s</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9fafb;">
	<div style="background-color: #1f2937; padding: 24px; text-align: center; border-radius: 10px 10px 0 0;">
		<h1 style="color: #ffffff; margin: 0; font-size: 24px;">%s</h1>
	</div>
	<div style="background-color: #ffffff; padding: 24px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px;">
		%s
		<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;">
		<p style="font-size: 13px; color: #6b7280;">
			This is an automated message from <a href="%s" style="color: #6b7280;">%s</a>.
		</p>
	</div>
</body>
</html>`,
		html.EscapeString(title),
		html.EscapeString(s.config.SiteTitle),
		body,
		s.config.SiteURL,
		html.EscapeString(s.config.SiteTitle),
	)
}

func (s *emailService) send(to []string, subject, htmlBody string) error {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if strings.TrimSpace(addr) != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.SiteTitle, s.config.FromEmail),
		To:      recipients,
		Html:    htmlBody,
		Subject: subject,
	}

	_, err := s.client.Emails.Send(params)
	return err
}
