// Mock of the DataSource interface, laid out like mockgen output so that
// `go generate ./mocks` can replace it without changing callers.

package mocks

import (
	reflect "reflect"
	time "time"

	optional "github.com/moznion/go-optional"
	types "github.com/rxtech-lab/argo-backtest/internal/types"
	gomock "go.uber.org/mock/gomock"
)

// MockDataSource is a mock of DataSource interface.
type MockDataSource struct {
	ctrl     *gomock.Controller
	recorder *MockDataSourceMockRecorder
	isgomock struct{}
}

// MockDataSourceMockRecorder is the mock recorder for MockDataSource.
type MockDataSourceMockRecorder struct {
	mock *MockDataSource
}

// NewMockDataSource creates a new mock instance.
func NewMockDataSource(ctrl *gomock.Controller) *MockDataSource {
	mock := &MockDataSource{ctrl: ctrl}
	mock.recorder = &MockDataSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockDataSource) EXPECT() *MockDataSourceMockRecorder {
	return m.recorder
}

// Close mocks base method.
func (m *MockDataSource) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

// Close indicates an expected call of Close.
func (mr *MockDataSourceMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockDataSource)(nil).Close))
}

// Count mocks base method.
func (m *MockDataSource) Count(arg0 string, arg1, arg2 optional.Option[time.Time]) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Count", arg0, arg1, arg2)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Count indicates an expected call of Count.
func (mr *MockDataSourceMockRecorder) Count(arg0, arg1, arg2 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Count", reflect.TypeOf((*MockDataSource)(nil).Count), arg0, arg1, arg2)
}

// Initialize mocks base method.
func (m *MockDataSource) Initialize(arg0 string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Initialize", arg0)
	ret0, _ := ret[0].(error)
	return ret0
}

// Initialize indicates an expected call of Initialize.
func (mr *MockDataSourceMockRecorder) Initialize(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Initialize", reflect.TypeOf((*MockDataSource)(nil).Initialize), arg0)
}

// ReadPrices mocks base method.
func (m *MockDataSource) ReadPrices(arg0 string, arg1, arg2 optional.Option[time.Time]) (types.Series[float64], error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadPrices", arg0, arg1, arg2)
	ret0, _ := ret[0].(types.Series[float64])
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ReadPrices indicates an expected call of ReadPrices.
func (mr *MockDataSourceMockRecorder) ReadPrices(arg0, arg1, arg2 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadPrices", reflect.TypeOf((*MockDataSource)(nil).ReadPrices), arg0, arg1, arg2)
}

// ReadRiskFree mocks base method.
func (m *MockDataSource) ReadRiskFree(arg0 string) (types.Series[float64], error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadRiskFree", arg0)
	ret0, _ := ret[0].(types.Series[float64])
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ReadRiskFree indicates an expected call of ReadRiskFree.
func (mr *MockDataSourceMockRecorder) ReadRiskFree(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadRiskFree", reflect.TypeOf((*MockDataSource)(nil).ReadRiskFree), arg0)
}

// Symbols mocks base method.
func (m *MockDataSource) Symbols() ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Symbols")
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Symbols indicates an expected call of Symbols.
func (mr *MockDataSourceMockRecorder) Symbols() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Symbols", reflect.TypeOf((*MockDataSource)(nil).Symbols))
}
