// Copyright (c) 2024 The Seoul Map Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package prefetch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T, maxAge time.Duration) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "prefetch.db"), maxAge)
	assert.Nil(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutAndGet(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	err := store.Put(ctx, []Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 120, Active: 95, Closed: 25},
		{IndustryCode: "072217", Borough: "용산구", Total: 60, Active: 50, Closed: 10},
	})
	assert.Nil(err)

	aggregates, found, err := store.Get(ctx, "072217")
	assert.Nil(err)
	assert.True(found)
	assert.Equal(2, len(aggregates))
	assert.Equal("마포구", aggregates[0].Borough)
	assert.Equal(120, aggregates[0].Total)
	assert.Equal(95, aggregates[0].Active)
	assert.Equal(25, aggregates[0].Closed)
	assert.False(aggregates[0].FetchedAt.IsZero())
}

func TestGetMissesUnknownCode(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t, time.Hour)

	aggregates, found, err := store.Get(context.Background(), "999999")
	assert.Nil(err)
	assert.False(found)
	assert.Equal(0, len(aggregates))
}

func TestPutReplacesExistingBorough(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	assert.Nil(store.Put(ctx, []Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 100, Active: 80, Closed: 20},
	}))
	assert.Nil(store.Put(ctx, []Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 101, Active: 81, Closed: 20},
	}))

	aggregates, found, err := store.Get(ctx, "072217")
	assert.Nil(err)
	assert.True(found)
	assert.Equal(1, len(aggregates))
	assert.Equal(101, aggregates[0].Total)
}

func TestGetIgnoresStaleEntries(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	assert.Nil(store.Put(ctx, []Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 100, Active: 80,
			Closed: 20, FetchedAt: time.Now().Add(-2 * time.Hour)},
	}))

	_, found, err := store.Get(ctx, "072217")
	assert.Nil(err)
	assert.False(found)
}

func TestInvalidate(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	assert.Nil(store.Put(ctx, []Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 100, Active: 80, Closed: 20},
		{IndustryCode: "104543", Borough: "마포구", Total: 7, Active: 7, Closed: 0},
	}))
	assert.Nil(store.Invalidate(ctx, "072217"))

	_, found, err := store.Get(ctx, "072217")
	assert.Nil(err)
	assert.False(found)

	// other industry codes are untouched
	_, found, err = store.Get(ctx, "104543")
	assert.Nil(err)
	assert.True(found)
}
