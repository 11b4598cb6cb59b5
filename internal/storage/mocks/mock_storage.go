package mocks

import (
	"context"
	"io"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, kind model.Kind, name string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, kind, name, r, opt)
	if f, ok := args.Get(0).(func(context.Context, model.Kind, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, kind, name, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Open(ctx context.Context, kind model.Kind, name string) (storage.Object, storage.ObjectInfo, error) {
	args := m.Called(ctx, kind, name)
	obj, _ := args.Get(0).(storage.Object)
	return obj, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, kind model.Kind, name string) error {
	args := m.Called(ctx, kind, name)
	return args.Error(0)
}
