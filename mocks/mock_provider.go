// Mock of the Provider interface, laid out like mockgen output so that
// `go generate ./mocks` can replace it without changing callers.

package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	writer "github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
	gomock "go.uber.org/mock/gomock"
)

// MockProvider is a mock of Provider interface.
type MockProvider struct {
	ctrl     *gomock.Controller
	recorder *MockProviderMockRecorder
	isgomock struct{}
}

// MockProviderMockRecorder is the mock recorder for MockProvider.
type MockProviderMockRecorder struct {
	mock *MockProvider
}

// NewMockProvider creates a new mock instance.
func NewMockProvider(ctrl *gomock.Controller) *MockProvider {
	mock := &MockProvider{ctrl: ctrl}
	mock.recorder = &MockProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProvider) EXPECT() *MockProviderMockRecorder {
	return m.recorder
}

// ConfigWriter mocks base method.
func (m *MockProvider) ConfigWriter(arg0 writer.MarketDataWriter) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ConfigWriter", arg0)
}

// ConfigWriter indicates an expected call of ConfigWriter.
func (mr *MockProviderMockRecorder) ConfigWriter(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConfigWriter", reflect.TypeOf((*MockProvider)(nil).ConfigWriter), arg0)
}

// Download mocks base method.
func (m *MockProvider) Download(arg0 context.Context, arg1 string, arg2, arg3 time.Time, arg4 func(float64, float64, string)) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Download", arg0, arg1, arg2, arg3, arg4)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Download indicates an expected call of Download.
func (mr *MockProviderMockRecorder) Download(arg0, arg1, arg2, arg3, arg4 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Download", reflect.TypeOf((*MockProvider)(nil).Download), arg0, arg1, arg2, arg3, arg4)
}
