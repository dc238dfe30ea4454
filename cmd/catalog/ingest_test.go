package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadBatch_YAML(t *testing.T) {
	path := writeFile(t, "batch.yaml", `
source: dispensary-a
listings:
  - name: Blue Dream 3.5g
    brand: Tryke
    price: 35.00
    thc: 22.5
  - name: Gelato Cart
    price: 40
    thc:
      value: 850
      unit: mg
`)

	batch, err := readBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "dispensary-a", batch.Source)
	require.Len(t, batch.Listings, 2)
	assert.Equal(t, "35", batch.Listings[0].Price.String())
	assert.Equal(t, 22.5, batch.Listings[0].THC.Value)
	assert.Equal(t, 850.0, batch.Listings[1].THC.Value)
	assert.Equal(t, "mg", string(batch.Listings[1].THC.Unit))
}

func TestReadBatch_JSON(t *testing.T) {
	path := writeFile(t, "batch.json", `{"source": "dispensary-b", "listings": [{"name": "Wedding Cake 1oz", "price": "180"}]}`)

	batch, err := readBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "dispensary-b", batch.Source)
	require.Len(t, batch.Listings, 1)
	assert.Equal(t, "Wedding Cake 1oz", batch.Listings[0].Name)
}

func TestReadBatch_Errors(t *testing.T) {
	_, err := readBatch(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = readBatch(writeFile(t, "bad.json", `{"source": `))
	assert.Error(t, err)
}
