package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCache(t *testing.T) {
	c := newResultCache(2)
	a := ProcessOptions{Validate: true}
	b := ProcessOptions{Validate: false}

	c.add("ds1", 0, a, &ProcessResult{DatasetID: "ds1"})
	c.add("ds1", 0, b, &ProcessResult{DatasetID: "ds1"})
	assert.Equal(t, 2, c.len())

	got, ok := c.get("ds1", a)
	assert.True(t, ok)
	assert.Equal(t, "ds1", got.DatasetID)

	// ds1/b is the least recently used entry
	c.add("ds2", 0, a, &ProcessResult{DatasetID: "ds2"})
	_, ok = c.get("ds1", b)
	assert.False(t, ok)
	assert.Len(t, c.byDataset["ds1"], 1)

	c.invalidate("ds1")
	_, ok = c.get("ds1", a)
	assert.False(t, ok)
	_, ok = c.get("ds2", a)
	assert.True(t, ok)
	assert.NotContains(t, c.byDataset, "ds1")
}

func TestResultCache_StaleAdd(t *testing.T) {
	c := newResultCache(4)
	opts := ProcessOptions{Validate: true}

	gen := c.generation("ds1")
	c.invalidate("ds1")
	assert.False(t, c.add("ds1", gen, opts, &ProcessResult{DatasetID: "ds1"}))
	_, ok := c.get("ds1", opts)
	assert.False(t, ok)
	assert.NotContains(t, c.byDataset, "ds1")

	gen = c.generation("ds1")
	assert.True(t, c.add("ds1", gen, opts, &ProcessResult{DatasetID: "ds1"}))
	_, ok = c.get("ds1", opts)
	assert.True(t, ok)

	// other datasets keep their generation
	assert.True(t, c.add("ds2", 0, opts, &ProcessResult{DatasetID: "ds2"}))
}

func TestResultCache_DefaultSize(t *testing.T) {
	c := newResultCache(0)
	assert.Positive(t, c.cache.MaxEntries)
}
