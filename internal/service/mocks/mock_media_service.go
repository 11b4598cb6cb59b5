package mocks

import (
	"context"

	"mediaapi/internal/model"
	"mediaapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) IngestUpload(ctx context.Context, file *model.UploadedFile) (*model.MediaRecord, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaRecord), args.Error(1)
}

func (m *MockMediaService) IngestFromURL(ctx context.Context, req service.FetchRequest) (*service.FetchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FetchResult), args.Error(1)
}

func (m *MockMediaService) ListByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MediaRecord), args.Error(1)
}

func (m *MockMediaService) Serve(ctx context.Context, req service.ServeRequest) (*service.Delivery, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Delivery), args.Error(1)
}
