package session_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNavigator is a mock implementation of session.Navigator.
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Navigate(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
