// Package mocks provides test doubles for the store.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	store "github.com/sells-group/courtscout/internal/store"
	venue "github.com/sells-group/courtscout/internal/venue"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// List provides a mock function with given fields: ctx
func (_m *MockStore) List(ctx context.Context) ([]venue.Record, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 []venue.Record
	if rf, ok := ret.Get(0).(func(context.Context) []venue.Record); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]venue.Record)
	}
	return r0, ret.Error(1)
}

// Create provides a mock function with given fields: ctx, r
func (_m *MockStore) Create(ctx context.Context, r venue.Record) (bool, error) {
	ret := _m.Called(ctx, r)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, venue.Record) bool); ok {
		r0 = rf(ctx, r)
	} else {
		r0 = ret.Get(0).(bool)
	}
	return r0, ret.Error(1)
}

// UpdateType provides a mock function with given fields: ctx, req
func (_m *MockStore) UpdateType(ctx context.Context, req store.UpdateTypeRequest) (int64, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for UpdateType")
	}

	var r0 int64
	if rf, ok := ret.Get(0).(func(context.Context, store.UpdateTypeRequest) int64); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(int64)
	}
	return r0, ret.Error(1)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ store.Store = (*MockStore)(nil)
