package mocks

import (
	"context"

	"mediaapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockMediaRepository struct {
	mock.Mock
}

func (m *MockMediaRepository) Create(ctx context.Context, rec *model.MediaRecord) (*model.MediaRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaRecord), args.Error(1)
}

func (m *MockMediaRepository) FindByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MediaRecord), args.Error(1)
}
