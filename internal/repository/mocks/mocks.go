package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/chemostats/workbench/internal/domain/assistant"
)

// Memory is a mock for assistant.Memory.
type Memory struct {
	mock.Mock
}

func (m *Memory) SaveContext(ctx context.Context, fileID string, stored assistant.StoredContext) error {
	args := m.Called(ctx, fileID, stored)
	return args.Error(0)
}

func (m *Memory) GetContext(ctx context.Context, fileID string) (*assistant.StoredContext, error) {
	args := m.Called(ctx, fileID)
	if stored, ok := args.Get(0).(*assistant.StoredContext); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Memory) AppendMessage(ctx context.Context, fileID string, msg assistant.Message) error {
	args := m.Called(ctx, fileID, msg)
	return args.Error(0)
}

func (m *Memory) History(ctx context.Context, fileID string, limit int) ([]assistant.Message, error) {
	args := m.Called(ctx, fileID, limit)
	if msgs, ok := args.Get(0).([]assistant.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Memory) ClearFile(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}
