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
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/model"
)

// Backend encapsulates one external search engine together with the queue
// layout it uses. The drain loops and the reconciler only ever talk to this
// interface, so the engine and its queue topology stay swappable.
//
// Enqueue operations are fire and forget: they log failures and return, so a
// web request that triggers an indexation never fails because Redis is down.
// IndexOffers and UnindexOfferIDs propagate engine errors to the caller,
// which is responsible for pushing the affected ids to the error queue.
type Backend interface {
	EnqueueOfferIDs(ctx context.Context, offerIDs []int64)
	EnqueueOfferIDsInError(ctx context.Context, offerIDs []int64)
	EnqueueVenueIDs(ctx context.Context, venueIDs []int64)

	PopOfferIDsFromQueue(ctx context.Context, count int64, fromErrorQueue bool) []int64
	GetVenueIDsFromQueue(ctx context.Context, count int64) []int64
	DeleteVenueIDsFromQueue(ctx context.Context, venueIDs []int64)
	CountOffersToIndexFromQueue(ctx context.Context, fromErrorQueue bool) int64

	IndexOffers(ctx context.Context, offers []*model.Offer) error
	UnindexOfferIDs(ctx context.Context, offerIDs []int64) error
	UnindexAllOffers(ctx context.Context) error

	// CheckOfferIsIndexed reports whether the backend believes the offer is
	// currently indexed. The reconciler skips the deletion of offers this
	// reports as absent, so a false answer for an offer that is actually
	// indexed leaves a stale document until the next full re-sync.
	CheckOfferIsIndexed(ctx context.Context, offerID int64) bool

	// ClearIndexedOffers drops the shadow indexed set. Used by the full
	// re-sync entry point together with UnindexAllOffers.
	ClearIndexedOffers(ctx context.Context)
}

// IndexClient is the transport boundary to the external engine. Production
// clients wrap Typesense or an App Search compatible HTTP API; tests inject
// a MemoryIndex to keep everything else representative of production.
type IndexClient interface {
	AddDocuments(ctx context.Context, documents []Document) error
	DeleteDocuments(ctx context.Context, objectIDs []int64) error
	Clear(ctx context.Context) error
}

// Factory builds a backend from the shared Redis client and configuration.
type Factory func(client redis.UniversalClient, cfg *config.Configuration) (Backend, error)

var backendFactories = map[string]Factory{}

// Register makes a backend constructor available under the given name.
// Backends register themselves in init; the name is matched against the
// configuration at startup.
func Register(name string, factory Factory) {
	backendFactories[name] = factory
}

// NewBackend resolves the configured backend name through the registry.
func NewBackend(client redis.UniversalClient, cfg *config.Configuration) (Backend, error) {
	factory, ok := backendFactories[cfg.Search.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown search backend %q (registered: %v)", cfg.Search.Backend, registeredBackends())
	}
	return factory(client, cfg)
}

func registeredBackends() []string {
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectOfferIDs(offers []*model.Offer) []int64 {
	ids := make([]int64, len(offers))
	for i, offer := range offers {
		ids[i] = offer.ID
	}
	return ids
}
