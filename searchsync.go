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

package searchsync

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/database"
	redis_db "github.com/offerhub/searchsync/internal/redis-db"
	"github.com/offerhub/searchsync/internal/search"
)

// Searchsync represents the main struct for the searchsync application. It
// owns the search service, the active backend and the datasource, and exposes
// the pipeline operations the API and the workers are built on.
type Searchsync struct {
	service    *search.Service
	backend    search.Backend
	redis      redis.UniversalClient
	datasource database.IDataSource
}

// NewSearchsync initializes a new instance of Searchsync with the provided
// datasource. It fetches the configuration, initializes the Redis client and
// resolves the configured search backend.
func NewSearchsync(db database.IDataSource) (*Searchsync, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	backend, err := search.NewBackend(redisClient.Client(), configuration)
	if err != nil {
		return nil, err
	}
	service := search.NewService(backend, db, search.Options{
		OfferIDsChunkSize:      configuration.Search.OfferIDsChunkSize,
		VenueIDsChunkSize:      configuration.Search.VenueIDsChunkSize,
		OffersByVenueChunkSize: configuration.Search.OffersByVenueChunkSize,
	})
	return &Searchsync{
		service:    service,
		backend:    backend,
		redis:      redisClient.Client(),
		datasource: db,
	}, nil
}

// NewSearchsyncWithDeps wires an instance from explicit collaborators. Used
// by tests to inject the memory backend and a fake datasource.
func NewSearchsyncWithDeps(backend search.Backend, redisClient redis.UniversalClient, db database.IDataSource, opts search.Options) *Searchsync {
	return &Searchsync{
		service:    search.NewService(backend, db, opts),
		backend:    backend,
		redis:      redisClient,
		datasource: db,
	}
}

// AsyncIndexOfferIDs enqueues offers for later reindexation.
func (s *Searchsync) AsyncIndexOfferIDs(ctx context.Context, offerIDs []int64) {
	s.service.AsyncIndexOfferIDs(ctx, offerIDs)
}

// AsyncIndexVenueIDs enqueues venues for later fan-out.
func (s *Searchsync) AsyncIndexVenueIDs(ctx context.Context, venueIDs []int64) {
	s.service.AsyncIndexVenueIDs(ctx, venueIDs)
}

// IndexOffersInQueue drains the pending offer queue. See
// search.Service.IndexOffersInQueue for the termination rules.
func (s *Searchsync) IndexOffersInQueue(ctx context.Context, stopOnlyWhenEmpty bool) {
	s.service.IndexOffersInQueue(ctx, stopOnlyWhenEmpty, false)
}

// IndexOffersInErrorQueue drains the error queue. Offers that fail again are
// put back on the error queue and wait for the next drain.
func (s *Searchsync) IndexOffersInErrorQueue(ctx context.Context, stopOnlyWhenEmpty bool) {
	s.service.IndexOffersInQueue(ctx, stopOnlyWhenEmpty, true)
}

// IndexVenuesInQueue fans venues out to their offers and reindexes them.
func (s *Searchsync) IndexVenuesInQueue(ctx context.Context) {
	s.service.IndexVenuesInQueue(ctx)
}

// ReindexOfferIDs synchronously reconciles the given offers against the index.
func (s *Searchsync) ReindexOfferIDs(ctx context.Context, offerIDs []int64) {
	s.service.ReindexOfferIDs(ctx, offerIDs)
}

// CountOffersToIndex returns the pending queue depth.
func (s *Searchsync) CountOffersToIndex(ctx context.Context) int64 {
	return s.backend.CountOffersToIndexFromQueue(ctx, false)
}

// CountOffersInError returns the error queue depth.
func (s *Searchsync) CountOffersInError(ctx context.Context) int64 {
	return s.backend.CountOffersToIndexFromQueue(ctx, true)
}

// Backend returns the active search backend.
func (s *Searchsync) Backend() search.Backend {
	return s.backend
}
