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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/internal/appsearch"
	"github.com/offerhub/searchsync/model"
)

const (
	appsearchOfferIDsKey        = "search:appsearch:offer-ids-to-index"
	appsearchOfferIDsInErrorKey = "search:appsearch:offer-ids-in-error-to-index"
	appsearchVenueIDsKey        = "search:appsearch:venue-ids-to-index"
	appsearchIndexedOffersKey   = "search:appsearch:indexed-offer-ids"
)

func init() {
	Register(config.BackendAppSearch, func(client redis.UniversalClient, cfg *config.Configuration) (Backend, error) {
		engine := cfg.AppSearch.Engine
		if engine == "" {
			engine = CollectionOffers
		}
		index := &appsearchIndex{client: appsearch.NewClient(cfg.AppSearch.Host, cfg.AppSearch.ApiKey, engine)}
		return NewAppSearchBackend(client, index), nil
	})
}

// AppSearchBackend pairs set-backed queues with an injected index client.
// The set representation deduplicates enqueued ids for free and removes
// exactly the processed venue ids instead of trimming by count.
type AppSearchBackend struct {
	queue *SetQueue
	index IndexClient
}

// NewAppSearchBackend builds the backend over the given Redis client and
// index client.
func NewAppSearchBackend(client redis.UniversalClient, index IndexClient) *AppSearchBackend {
	keys := QueueKeys{
		PendingOffers: appsearchOfferIDsKey,
		ErrorOffers:   appsearchOfferIDsInErrorKey,
		PendingVenues: appsearchVenueIDsKey,
		IndexedOffers: appsearchIndexedOffersKey,
	}
	return &AppSearchBackend{queue: NewSetQueue(client, keys), index: index}
}

func (b *AppSearchBackend) EnqueueOfferIDs(ctx context.Context, offerIDs []int64) {
	b.queue.EnqueueOfferIDs(ctx, offerIDs)
}

func (b *AppSearchBackend) EnqueueOfferIDsInError(ctx context.Context, offerIDs []int64) {
	b.queue.EnqueueOfferIDsInError(ctx, offerIDs)
}

func (b *AppSearchBackend) EnqueueVenueIDs(ctx context.Context, venueIDs []int64) {
	b.queue.EnqueueVenueIDs(ctx, venueIDs)
}

func (b *AppSearchBackend) PopOfferIDsFromQueue(ctx context.Context, count int64, fromErrorQueue bool) []int64 {
	return b.queue.PopOfferIDs(ctx, count, fromErrorQueue)
}

func (b *AppSearchBackend) GetVenueIDsFromQueue(ctx context.Context, count int64) []int64 {
	return b.queue.GetVenueIDs(ctx, count)
}

func (b *AppSearchBackend) DeleteVenueIDsFromQueue(ctx context.Context, venueIDs []int64) {
	b.queue.DeleteVenueIDs(ctx, venueIDs)
}

func (b *AppSearchBackend) CountOffersToIndexFromQueue(ctx context.Context, fromErrorQueue bool) int64 {
	return b.queue.CountPending(ctx, fromErrorQueue)
}

func (b *AppSearchBackend) IndexOffers(ctx context.Context, offers []*model.Offer) error {
	now := time.Now()
	documents := make([]Document, len(offers))
	for i, offer := range offers {
		documents[i] = BuildDocument(offer, now)
	}
	if err := b.index.AddDocuments(ctx, documents); err != nil {
		return err
	}
	b.queue.MarkIndexed(ctx, collectOfferIDs(offers))
	return nil
}

func (b *AppSearchBackend) UnindexOfferIDs(ctx context.Context, offerIDs []int64) error {
	if err := b.index.DeleteDocuments(ctx, offerIDs); err != nil {
		return err
	}
	b.queue.UnmarkIndexed(ctx, offerIDs)
	return nil
}

func (b *AppSearchBackend) UnindexAllOffers(ctx context.Context) error {
	return b.index.Clear(ctx)
}

// CheckOfferIsIndexed consults the shadow set; SISMEMBER is cheap enough
// here that the backend does not fall back to the always-false default.
func (b *AppSearchBackend) CheckOfferIsIndexed(ctx context.Context, offerID int64) bool {
	return b.queue.CheckIndexed(ctx, offerID)
}

func (b *AppSearchBackend) ClearIndexedOffers(ctx context.Context) {
	b.queue.ClearIndexed(ctx)
}

// appsearchIndex adapts the App Search HTTP client to the IndexClient
// boundary.
type appsearchIndex struct {
	client *appsearch.Client
}

func (a *appsearchIndex) AddDocuments(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}
	return a.client.IndexDocuments(ctx, documents)
}

func (a *appsearchIndex) DeleteDocuments(ctx context.Context, objectIDs []int64) error {
	if len(objectIDs) == 0 {
		return nil
	}
	return a.client.DeleteDocuments(ctx, objectIDs)
}

func (a *appsearchIndex) Clear(ctx context.Context) error {
	return a.client.RecreateEngine(ctx)
}
