package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/port"
)

// MockTransactor is a mock implementation of port.Transactor. WithinTx hands
// Parcels and Results to the unit of work; a non-nil error configured on the
// mock is returned without running it.
type MockTransactor struct {
	mock.Mock
	Parcels port.ParcelRepository
	Results port.PODResultRepository
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(port.ParcelRepository, port.PODResultRepository) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Parcels, m.Results)
}
