package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendCommentReceived(ctx context.Context, toEmail, content string) error {
	args := m.Called(ctx, toEmail, content)
	return args.Error(0)
}

func (m *EmailService) SendOrganizationNotice(ctx context.Context, toEmails []string, datasetTitle, datasetURL, authorName, authorEmail, content string, createdAt time.Time) error {
	args := m.Called(ctx, toEmails, datasetTitle, datasetURL, authorName, authorEmail, content, createdAt)
	return args.Error(0)
}

func (m *EmailService) SendCommentApproved(ctx context.Context, toEmail, username, datasetTitle, datasetURL, content string) error {
	args := m.Called(ctx, toEmail, username, datasetTitle, datasetURL, content)
	return args.Error(0)
}

func (m *EmailService) SendCommentDeleted(ctx context.Context, toEmail, subject, body string) error {
	args := m.Called(ctx, toEmail, subject, body)
	return args.Error(0)
}
