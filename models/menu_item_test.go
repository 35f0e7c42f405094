package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogTableNames(t *testing.T) {
	assert.Equal(t, "categories", Category{}.TableName())
	assert.Equal(t, "menu_items", MenuItem{}.TableName())
}

func TestMenuItemStockFlags(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		threshold  int
		lowStock   bool
		outOfStock bool
	}{
		{"plenty", 100, 10, false, false},
		{"at threshold", 10, 10, true, false},
		{"below threshold", 3, 10, true, false},
		{"empty", 0, 10, true, true},
		{"zero threshold with stock", 1, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := MenuItem{StockQuantity: tt.stock, LowStockThreshold: tt.threshold}
			assert.Equal(t, tt.lowStock, item.IsLowStock())
			assert.Equal(t, tt.outOfStock, item.IsOutOfStock())
		})
	}
}

func TestMenuItemMarshalJSONIncludesStockFlags(t *testing.T) {
	item := MenuItem{
		ID:                7,
		Name:              "Chill Burger",
		Price:             decimal.RequireFromString("12.99"),
		StockQuantity:     0,
		LowStockThreshold: 10,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Chill Burger", out["name"])
	assert.Equal(t, "12.99", out["price"])
	assert.Equal(t, true, out["is_low_stock"])
	assert.Equal(t, true, out["is_out_of_stock"])

	var decoded MenuItem
	require.NoError(t, json.Unmarshal(data, &decoded), "Marshalled items should decode back")
	assert.Equal(t, uint(7), decoded.ID)
	assert.True(t, item.Price.Equal(decoded.Price))
}
