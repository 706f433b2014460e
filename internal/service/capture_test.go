package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/capture"
	"github.com/sparkfn/webhook-listener/internal/domain"
	"github.com/sparkfn/webhook-listener/internal/namespace"
)

// MockEventStore is a mock implementation of store.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Append(ctx context.Context, event *domain.EventRecord) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStore) List(ns string) ([]*domain.EventRecord, error) {
	args := m.Called(ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EventRecord), args.Error(1)
}

func (m *MockEventStore) Clear(ns string) error {
	args := m.Called(ns)
	return args.Error(0)
}

func (m *MockEventStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockBroadcaster is a mock implementation of hub.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastEvent(event *domain.EventRecord) {
	m.Called(event)
}

func (m *MockBroadcaster) BroadcastClear(ns string) {
	m.Called(ns)
}

func newTestService(st *MockEventStore, b *MockBroadcaster) *CaptureService {
	registry := namespace.NewRegistry([]string{"demo", "other"})
	return NewCaptureService(registry, capture.NewNormalizer(), st, b, zap.NewNop())
}

func TestCaptureService_Capture_Success(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	mockStore.On("Append", mock.Anything, mock.AnythingOfType("*domain.EventRecord")).Return(nil)
	mockBroadcaster.On("BroadcastEvent", mock.AnythingOfType("*domain.EventRecord")).Return()

	req := httptest.NewRequest("POST", "/hook/demo?k=v", nil)

	event, err := svc.Capture(context.Background(), "demo", req, []byte(`{"n":1}`))

	assert.NoError(t, err)
	assert.NotNil(t, event)
	assert.Equal(t, "demo", event.Namespace)
	assert.NotEmpty(t, event.ID)
	mockStore.AssertExpectations(t)
	mockBroadcaster.AssertExpectations(t)

	// The broadcast carries the same record the caller is acknowledged with.
	broadcasted := mockBroadcaster.Calls[0].Arguments.Get(0).(*domain.EventRecord)
	assert.Equal(t, event.ID, broadcasted.ID)
}

func TestCaptureService_Capture_UnknownNamespace(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	req := httptest.NewRequest("POST", "/hook/nope", nil)

	event, err := svc.Capture(context.Background(), "nope", req, nil)

	assert.ErrorIs(t, err, domain.ErrNamespaceNotFound)
	assert.Nil(t, event)
	mockStore.AssertNotCalled(t, "Append")
	mockBroadcaster.AssertNotCalled(t, "BroadcastEvent")
}

func TestCaptureService_Capture_AppendFailureSuppressesBroadcast(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	storeErr := errors.New("disk full")
	mockStore.On("Append", mock.Anything, mock.Anything).Return(storeErr)

	req := httptest.NewRequest("POST", "/hook/demo", nil)

	event, err := svc.Capture(context.Background(), "demo", req, nil)

	assert.Error(t, err)
	assert.Nil(t, event)
	assert.Contains(t, err.Error(), "disk full")
	mockBroadcaster.AssertNotCalled(t, "BroadcastEvent")
	mockStore.AssertExpectations(t)
}

func TestCaptureService_ListEvents_Success(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	stored := []*domain.EventRecord{
		{ID: "ev-1", Namespace: "demo"},
		{ID: "ev-2", Namespace: "demo"},
	}
	mockStore.On("List", "demo").Return(stored, nil)

	events, err := svc.ListEvents("demo")

	assert.NoError(t, err)
	assert.Equal(t, stored, events)
	mockStore.AssertExpectations(t)
}

func TestCaptureService_ListEvents_UnknownNamespace(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	_, err := svc.ListEvents("nope")

	assert.ErrorIs(t, err, domain.ErrNamespaceNotFound)
	mockStore.AssertNotCalled(t, "List")
}

func TestCaptureService_ClearEvents_Success(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	mockStore.On("Clear", "demo").Return(nil)
	mockBroadcaster.On("BroadcastClear", "demo").Return()

	assert.NoError(t, svc.ClearEvents("demo"))
	mockStore.AssertExpectations(t)
	mockBroadcaster.AssertExpectations(t)
}

func TestCaptureService_ClearEvents_StoreFailureSuppressesBroadcast(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	mockStore.On("Clear", "demo").Return(errors.New("truncate failed"))

	err := svc.ClearEvents("demo")

	assert.Error(t, err)
	mockBroadcaster.AssertNotCalled(t, "BroadcastClear")
}

func TestCaptureService_ListNamespaces_Stable(t *testing.T) {
	mockStore := new(MockEventStore)
	mockBroadcaster := new(MockBroadcaster)
	svc := newTestService(mockStore, mockBroadcaster)

	first := svc.ListNamespaces()
	second := svc.ListNamespaces()

	assert.Equal(t, []string{"demo", "other"}, first)
	assert.Equal(t, first, second)
}
