/*
Copyright 2026 Searchsync Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/offerhub/searchsync/model"
)

func loaderWithBookableOffers(ids ...int64) *fakeLoader {
	offers := make(map[int64]*model.Offer, len(ids))
	for _, id := range ids {
		offers[id] = testOffer(id, true)
	}
	return &fakeLoader{offers: offers, venuePages: map[int64][][]int64{}}
}

func TestIndexOffersInQueue_CronStopsBelowChunk(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers(1, 2, 3, 4, 5, 6, 7, 8)
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	s.AsyncIndexOfferIDs(ctx, []int64{1, 2, 3, 4, 5, 6, 7, 8})

	s.IndexOffersInQueue(ctx, false, false)

	// Chunk size is 3: two full chunks are processed, then fewer than a
	// chunk remains and the cron run stops, leaving [7 8] queued.
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, index.ObjectIDs())
	assert.Equal(t, []int64{7, 8}, backend.PopOfferIDsFromQueue(ctx, 10, false))
}

func TestIndexOffersInQueue_EmptyQueuePopsOnce(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers()
	index := NewMemoryIndex()
	s, _ := newReconcileService(t, loader, index)

	s.IndexOffersInQueue(ctx, false, false)

	assert.Equal(t, 0, loader.loadCalls)
	assert.Equal(t, 0, index.Len())
}

func TestIndexOffersInQueue_StopOnlyWhenEmptyDrainsAll(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers(1, 2, 3, 4, 5, 6, 7, 8)
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	s.AsyncIndexOfferIDs(ctx, []int64{1, 2, 3, 4, 5, 6, 7, 8})

	s.IndexOffersInQueue(ctx, true, false)

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, index.ObjectIDs())
	assert.Equal(t, int64(0), backend.CountOffersToIndexFromQueue(ctx, false))
}

func TestIndexOffersInQueue_FromErrorQueue(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers(1, 2)
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	backend.EnqueueOfferIDsInError(ctx, []int64{1, 2})

	s.IndexOffersInQueue(ctx, true, true)

	assert.Equal(t, []int64{1, 2}, index.ObjectIDs())
	assert.Equal(t, int64(0), backend.CountOffersToIndexFromQueue(ctx, true))
}

func TestIndexVenuesInQueue_FansOutPages(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers(1, 2, 3)
	loader.venuePages[10] = [][]int64{{1, 2}, {3}}
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	s.AsyncIndexVenueIDs(ctx, []int64{10})

	s.IndexVenuesInQueue(ctx)

	assert.Equal(t, []int64{1, 2, 3}, index.ObjectIDs())
	// The venue left the queue once its offers were processed.
	assert.Empty(t, backend.GetVenueIDsFromQueue(ctx, 10))
}

func TestIndexVenuesInQueue_VenueWithoutOffers(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers()
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	s.AsyncIndexVenueIDs(ctx, []int64{10})

	s.IndexVenuesInQueue(ctx)

	assert.Equal(t, 0, index.Len())
	assert.Empty(t, backend.GetVenueIDsFromQueue(ctx, 10))
}

func TestUnindexOfferIDs_BypassesBookability(t *testing.T) {
	ctx := context.Background()
	loader := loaderWithBookableOffers(1)
	index := NewMemoryIndex()
	s, backend := newReconcileService(t, loader, index)

	s.ReindexOfferIDs(ctx, []int64{1})
	assert.Equal(t, 1, index.Len())

	// Offer 1 is still bookable in the datastore, the removal happens anyway.
	assert.NoError(t, s.UnindexOfferIDs(ctx, []int64{1}))
	assert.Equal(t, 0, index.Len())
	assert.False(t, backend.CheckOfferIsIndexed(ctx, 1))
}
