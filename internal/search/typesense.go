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
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/model"
)

// CollectionOffers is the Typesense collection holding offer documents.
const CollectionOffers = "offers"

const (
	typesenseOfferIDsKey        = "search:typesense:offer-ids"
	typesenseOfferIDsInErrorKey = "search:typesense:offer-ids-in-error"
	typesenseVenueIDsKey        = "search:typesense:venue-ids"
	typesenseIndexedOffersKey   = "search:typesense:indexed-offers"
)

func init() {
	Register(config.BackendTypesense, func(client redis.UniversalClient, cfg *config.Configuration) (Backend, error) {
		index, err := NewTypesenseIndex(cfg)
		if err != nil {
			return nil, err
		}
		return NewTypesenseBackend(client, index), nil
	})
	// The memory backend is the Typesense backend with the engine call
	// boundary replaced by an in-process map. All queue logic is shared, so
	// its behavior stays representative of production.
	Register(config.BackendMemory, func(client redis.UniversalClient, cfg *config.Configuration) (Backend, error) {
		return NewTypesenseBackend(client, NewMemoryIndex()), nil
	})
}

// TypesenseBackend pairs list-backed queues with an injected index client.
// The list representation preserves FIFO order across pops, which no caller
// may rely on but which keeps drains roughly chronological.
type TypesenseBackend struct {
	queue *ListQueue
	index IndexClient
}

// NewTypesenseBackend builds the backend over the given Redis client and
// index client. Passing a fake index client yields the test backend.
func NewTypesenseBackend(client redis.UniversalClient, index IndexClient) *TypesenseBackend {
	keys := QueueKeys{
		PendingOffers: typesenseOfferIDsKey,
		ErrorOffers:   typesenseOfferIDsInErrorKey,
		PendingVenues: typesenseVenueIDsKey,
		IndexedOffers: typesenseIndexedOffersKey,
	}
	return &TypesenseBackend{queue: NewListQueue(client, keys), index: index}
}

func (b *TypesenseBackend) EnqueueOfferIDs(ctx context.Context, offerIDs []int64) {
	b.queue.EnqueueOfferIDs(ctx, offerIDs)
}

func (b *TypesenseBackend) EnqueueOfferIDsInError(ctx context.Context, offerIDs []int64) {
	b.queue.EnqueueOfferIDsInError(ctx, offerIDs)
}

func (b *TypesenseBackend) EnqueueVenueIDs(ctx context.Context, venueIDs []int64) {
	b.queue.EnqueueVenueIDs(ctx, venueIDs)
}

func (b *TypesenseBackend) PopOfferIDsFromQueue(ctx context.Context, count int64, fromErrorQueue bool) []int64 {
	return b.queue.PopOfferIDs(ctx, count, fromErrorQueue)
}

func (b *TypesenseBackend) GetVenueIDsFromQueue(ctx context.Context, count int64) []int64 {
	return b.queue.GetVenueIDs(ctx, count)
}

func (b *TypesenseBackend) DeleteVenueIDsFromQueue(ctx context.Context, venueIDs []int64) {
	b.queue.DeleteVenueIDs(ctx, venueIDs)
}

func (b *TypesenseBackend) CountOffersToIndexFromQueue(ctx context.Context, fromErrorQueue bool) int64 {
	return b.queue.CountPending(ctx, fromErrorQueue)
}

// IndexOffers builds one document per offer and submits them in a single
// batch. A submission failure propagates to the caller so the batch can be
// queued for retry; the shadow set update afterwards is best effort only.
func (b *TypesenseBackend) IndexOffers(ctx context.Context, offers []*model.Offer) error {
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

// UnindexOfferIDs submits a batch delete, then best-effort unmarks the ids
// from the shadow set.
func (b *TypesenseBackend) UnindexOfferIDs(ctx context.Context, offerIDs []int64) error {
	if err := b.index.DeleteDocuments(ctx, offerIDs); err != nil {
		return err
	}
	b.queue.UnmarkIndexed(ctx, offerIDs)
	return nil
}

// UnindexAllOffers empties the external index.
func (b *TypesenseBackend) UnindexAllOffers(ctx context.Context) error {
	return b.index.Clear(ctx)
}

// CheckOfferIsIndexed consults the shadow set. It may be stale if a previous
// delete failed after the engine call; the full re-sync entry point is the
// recourse when that happens.
func (b *TypesenseBackend) CheckOfferIsIndexed(ctx context.Context, offerID int64) bool {
	return b.queue.CheckIndexed(ctx, offerID)
}

func (b *TypesenseBackend) ClearIndexedOffers(ctx context.Context) {
	b.queue.ClearIndexed(ctx)
}

// typesenseDocument adds the string primary key Typesense requires on top of
// the shared document schema.
type typesenseDocument struct {
	ID string `json:"id"`
	Document
}

// TypesenseIndex is the IndexClient backed by a Typesense cluster.
type TypesenseIndex struct {
	client *typesense.Client
}

// NewTypesenseIndex connects to Typesense and makes sure the offers
// collection exists.
func NewTypesenseIndex(cfg *config.Configuration) (*TypesenseIndex, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.TypeSense.Dns),
		typesense.WithAPIKey(cfg.TypeSense.ApiKey),
		typesense.WithConnectionTimeout(5*time.Second),
		typesense.WithCircuitBreakerMaxRequests(50),
		typesense.WithCircuitBreakerInterval(2*time.Minute),
		typesense.WithCircuitBreakerTimeout(1*time.Minute),
	)
	index := &TypesenseIndex{client: client}
	if err := index.ensureCollectionExists(context.Background()); err != nil {
		return nil, err
	}
	return index, nil
}

func (t *TypesenseIndex) ensureCollectionExists(ctx context.Context) error {
	_, err := t.client.Collections().Create(ctx, getOffersSchema())
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", CollectionOffers, err)
	}
	return nil
}

// AddDocuments imports the documents in one upsert batch.
func (t *TypesenseIndex) AddDocuments(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}
	payload := make([]interface{}, len(documents))
	for i, document := range documents {
		payload[i] = typesenseDocument{ID: formatID(document.ObjectID), Document: document}
	}

	action := "upsert"
	responses, err := t.client.Collection(CollectionOffers).Documents().Import(ctx, payload, &api.ImportDocumentsParams{Action: &action})
	if err != nil {
		return fmt.Errorf("failed to import documents in Typesense: %w", err)
	}
	for _, response := range responses {
		if !response.Success {
			return fmt.Errorf("typesense rejected a document during import: %s", response.Error)
		}
	}
	return nil
}

// DeleteDocuments removes the documents in one delete-by-filter call.
func (t *TypesenseIndex) DeleteDocuments(ctx context.Context, objectIDs []int64) error {
	if len(objectIDs) == 0 {
		return nil
	}
	members := make([]string, len(objectIDs))
	for i, id := range objectIDs {
		members[i] = formatID(id)
	}
	filter := fmt.Sprintf("objectID:[%s]", strings.Join(members, ","))
	_, err := t.client.Collection(CollectionOffers).Documents().Delete(ctx, &api.DeleteDocumentsParams{FilterBy: &filter})
	if err != nil {
		return fmt.Errorf("failed to delete documents in Typesense: %w", err)
	}
	return nil
}

// Clear drops and recreates the offers collection.
func (t *TypesenseIndex) Clear(ctx context.Context) error {
	_, err := t.client.Collection(CollectionOffers).Delete(ctx)
	if err != nil && !strings.Contains(err.Error(), "not found") && !strings.Contains(err.Error(), "Not Found") {
		return err
	}
	return t.ensureCollectionExists(ctx)
}

// getOffersSchema returns the schema for the "offers" collection.
func getOffersSchema() *api.CollectionSchema {
	facet := true
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionOffers,
		Fields: []api.Field{
			{Name: "objectID", Type: "int64", Facet: &facet},
			{Name: "offer", Type: "object", Optional: &enableNested},
			{Name: "offerer", Type: "object", Optional: &enableNested},
			{Name: "venue", Type: "object", Optional: &enableNested},
			{Name: "_geoloc", Type: "object", Optional: &enableNested},
		},
		EnableNestedFields: &enableNested,
	}
}
