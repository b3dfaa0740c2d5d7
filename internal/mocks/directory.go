package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type RoleSource struct {
	mock.Mock
}

func (m *RoleSource) RolesByAuthor(ctx context.Context, authorID string) ([]string, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type OrgMembership struct {
	mock.Mock
}

func (m *OrgMembership) EditorEmails(ctx context.Context, orgID string) ([]string, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
