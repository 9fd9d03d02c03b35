package scanning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
)

func TestDuplicateGuard_CheckOrder(t *testing.T) {
	clock := shared.FixedClock{Time: testNow}

	t.Run("returns record inside the window", func(t *testing.T) {
		repo := new(MockScanRepository)
		existing := &scan.ScanRecord{ID: 7, OrderName: "#123", Timestamp: testNow.AddDate(0, 0, -2)}
		repo.On("FindRecentByOrderName", mock.Anything, "#123", testNow.AddDate(0, 0, -7)).
			Return(existing, nil)

		g := NewDuplicateGuard(repo, clock, 7, 3)
		got, err := g.CheckOrder(context.Background(), "#123")
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	})

	t.Run("maps not found to nil", func(t *testing.T) {
		repo := new(MockScanRepository)
		repo.On("FindRecentByOrderName", mock.Anything, "#123", mock.Anything).
			Return(nil, shared.ErrNotFound)

		g := NewDuplicateGuard(repo, clock, 7, 3)
		got, err := g.CheckOrder(context.Background(), "#123")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		repo := new(MockScanRepository)
		repo.On("FindRecentByOrderName", mock.Anything, "#123", mock.Anything).
			Return(nil, errors.New("connection reset"))

		g := NewDuplicateGuard(repo, clock, 7, 3)
		_, err := g.CheckOrder(context.Background(), "#123")
		assert.Error(t, err)
	})
}

func TestDuplicateGuard_CheckPhone(t *testing.T) {
	clock := shared.FixedClock{Time: testNow}

	t.Run("uses the fixed phone window, not the order window", func(t *testing.T) {
		repo := new(MockScanRepository)
		existing := &scan.ScanRecord{ID: 9, Phone: "212661234567"}
		repo.On("FindRecentByPhone", mock.Anything, "212661234567", testNow.AddDate(0, 0, -3)).
			Return(existing, nil)

		g := NewDuplicateGuard(repo, clock, 30, 3)
		got, err := g.CheckPhone(context.Background(), "212661234567")
		require.NoError(t, err)
		assert.Equal(t, existing, got)
		repo.AssertExpectations(t)
	})

	t.Run("empty phone never matches", func(t *testing.T) {
		repo := new(MockScanRepository)

		g := NewDuplicateGuard(repo, clock, 7, 3)
		got, err := g.CheckPhone(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, got)
		repo.AssertNotCalled(t, "FindRecentByPhone", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDuplicateGuard_WindowExpiry(t *testing.T) {
	// a scan 8 days old is outside the 7 day order window: the repository
	// query lower bound excludes it, so the guard sees not found
	repo := new(MockScanRepository)
	repo.On("FindRecentByOrderName", mock.Anything, "#123", testNow.AddDate(0, 0, -7)).
		Return(nil, shared.ErrNotFound)

	g := NewDuplicateGuard(repo, shared.FixedClock{Time: testNow}, 7, 3)
	got, err := g.CheckOrder(context.Background(), "#123")
	require.NoError(t, err)
	assert.Nil(t, got)
}
