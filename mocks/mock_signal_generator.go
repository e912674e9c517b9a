// Mock of the SignalGenerator interface, laid out like mockgen output so that
// `go generate ./mocks` can replace it without changing callers.

package mocks

import (
	reflect "reflect"

	types "github.com/rxtech-lab/argo-backtest/internal/types"
	gomock "go.uber.org/mock/gomock"
)

// MockSignalGenerator is a mock of SignalGenerator interface.
type MockSignalGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockSignalGeneratorMockRecorder
	isgomock struct{}
}

// MockSignalGeneratorMockRecorder is the mock recorder for MockSignalGenerator.
type MockSignalGeneratorMockRecorder struct {
	mock *MockSignalGenerator
}

// NewMockSignalGenerator creates a new mock instance.
func NewMockSignalGenerator(ctrl *gomock.Controller) *MockSignalGenerator {
	mock := &MockSignalGenerator{ctrl: ctrl}
	mock.recorder = &MockSignalGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSignalGenerator) EXPECT() *MockSignalGeneratorMockRecorder {
	return m.recorder
}

// Name mocks base method.
func (m *MockSignalGenerator) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(string)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockSignalGeneratorMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockSignalGenerator)(nil).Name))
}

// Params mocks base method.
func (m *MockSignalGenerator) Params() map[string]any {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Params")
	ret0, _ := ret[0].(map[string]any)
	return ret0
}

// Params indicates an expected call of Params.
func (mr *MockSignalGeneratorMockRecorder) Params() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Params", reflect.TypeOf((*MockSignalGenerator)(nil).Params))
}

// Positions mocks base method.
func (m *MockSignalGenerator) Positions(arg0 types.Series[float64]) (types.Series[int], error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Positions", arg0)
	ret0, _ := ret[0].(types.Series[int])
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Positions indicates an expected call of Positions.
func (mr *MockSignalGeneratorMockRecorder) Positions(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Positions", reflect.TypeOf((*MockSignalGenerator)(nil).Positions), arg0)
}
