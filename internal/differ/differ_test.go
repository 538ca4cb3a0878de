package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-dostup/marketsync/internal/models"
)

func record(id, desc string, price float64) models.ProductRecord {
	return models.ProductRecord{ID: id, Description: desc, Price: price}
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	s := []models.ProductRecord{
		record("A", "Apple iPad", 5000),
		record("B", "Samsung Buds", 20000),
	}

	plan := Diff(s, s)
	assert.True(t, plan.Empty())
}

func TestDiffFourSets(t *testing.T) {
	oldS := []models.ProductRecord{
		record("A", "Apple iPad", 5000),
		record("B", "Samsung Buds", 20000),
		record("D", "Dyson V15", 45000),
	}
	newS := []models.ProductRecord{
		record("A", "Apple iPad", 6000),
		record("C", "Garmin Fenix", 15000),
		record("D", "Dyson V15 Detect", 45000),
	}

	plan := Diff(oldS, newS)

	require.Len(t, plan.Added, 1)
	assert.Equal(t, "C", plan.Added[0].ID)

	require.Len(t, plan.Removed, 1)
	assert.Equal(t, "B", plan.Removed[0].ID)

	require.Len(t, plan.PriceChanged, 1)
	assert.Equal(t, "A", plan.PriceChanged[0].New.ID)
	assert.Equal(t, 5000.0, plan.PriceChanged[0].OldPrice)
	assert.Equal(t, 6000.0, plan.PriceChanged[0].New.Price)

	require.Len(t, plan.DescriptionChanged, 1)
	assert.Equal(t, "D", plan.DescriptionChanged[0].New.ID)
	assert.Equal(t, "Dyson V15", plan.DescriptionChanged[0].OldDesc)
}

func TestDiffPriceAndDescriptionBothChanged(t *testing.T) {
	oldS := []models.ProductRecord{record("A", "Apple iPad", 5000)}
	newS := []models.ProductRecord{record("A", "Apple iPad Pro", 6000)}

	plan := Diff(oldS, newS)

	require.Len(t, plan.PriceChanged, 1)
	require.Len(t, plan.DescriptionChanged, 1)
	assert.Empty(t, plan.Added)
	assert.Empty(t, plan.Removed)
}

// Duplicate identifiers inside one snapshot resolve to the last occurrence.
func TestDiffDuplicateLastWins(t *testing.T) {
	oldS := []models.ProductRecord{record("A", "Apple iPad", 5000)}
	newS := []models.ProductRecord{
		record("A", "Apple iPad", 9999),
		record("A", "Apple iPad", 5000),
	}

	plan := Diff(oldS, newS)
	assert.True(t, plan.Empty())
}

func TestDiffNoExactnessNormalization(t *testing.T) {
	oldS := []models.ProductRecord{record("A", "Apple iPad", 5000)}
	newS := []models.ProductRecord{record("A", "apple ipad ", 5000)}

	plan := Diff(oldS, newS)
	require.Len(t, plan.DescriptionChanged, 1)
}

func TestDiffDeterministicOrder(t *testing.T) {
	oldS := []models.ProductRecord{}
	newS := []models.ProductRecord{
		record("Z", "z", 1),
		record("A", "a", 1),
		record("M", "m", 1),
	}

	plan := Diff(oldS, newS)
	require.Len(t, plan.Added, 3)
	assert.Equal(t, "A", plan.Added[0].ID)
	assert.Equal(t, "M", plan.Added[1].ID)
	assert.Equal(t, "Z", plan.Added[2].ID)
}
