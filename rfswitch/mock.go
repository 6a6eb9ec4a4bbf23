package rfswitch

import "github.com/stretchr/testify/mock"

// MockSwitch is a testify mock implementing Switch for orchestrator tests.
type MockSwitch struct {
	mock.Mock
}

var _ Switch = (*MockSwitch)(nil)

func NewMockSwitch() *MockSwitch {
	return &MockSwitch{}
}

func (m *MockSwitch) ActivatePort(port int) error {
	args := m.Called(port)

	return args.Error(0)
}

func (m *MockSwitch) Release() error {
	args := m.Called()

	return args.Error(0)
}
