package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockRawTextParser is a mock implementation of port.RawTextParser.
type MockRawTextParser struct {
	mock.Mock
}

func (m *MockRawTextParser) Parse(text string) map[string]any {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]any)
}
