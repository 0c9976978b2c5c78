package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItem_Method(t *testing.T) {
	base := InventoryItem{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	t.Run("calculated", func(t *testing.T) {
		i := base
		i.Counts = map[CountType]int{
			CountTypePhysical:      30,
			CountTypeDefiniteSold:  8,
			CountTypeTentativeSold: 2,
			CountTypeOutOfOrder:    1,
		}
		assert.Equal(t, InventoryMethodCalculated, i.Method())
		require.NoError(t, i.Validate())
	})

	t.Run("direct", func(t *testing.T) {
		i := base
		i.Counts = map[CountType]int{CountTypeAvailable: 15}
		assert.Equal(t, InventoryMethodDirect, i.Method())
		require.NoError(t, i.Validate())
	})

	t.Run("mixed is invalid", func(t *testing.T) {
		i := base
		i.Counts = map[CountType]int{
			CountTypeAvailable:    15,
			CountTypeDefiniteSold: 8,
		}
		assert.Equal(t, InventoryMethodUnknown, i.Method())
		assert.Error(t, i.Validate())
	})

	t.Run("physical below sold minus oversell fails", func(t *testing.T) {
		i := base
		i.Counts = map[CountType]int{
			CountTypePhysical:      5,
			CountTypeDefiniteSold:  8,
			CountTypeTentativeSold: 2,
			CountTypeOutOfOrder:    1,
		}
		assert.Error(t, i.Validate())
	})

	t.Run("range over 365 days rejected", func(t *testing.T) {
		i := base
		i.EndDate = i.StartDate.AddDate(1, 1, 0)
		i.Counts = map[CountType]int{CountTypeAvailable: 1}
		assert.Error(t, i.Validate())
	})
}
