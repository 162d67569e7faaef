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

// Package search keeps an external search index eventually consistent with
// the offers and venues stored in the transactional database. Write paths
// enqueue ids; scheduled drains pop batches and reconcile each offer against
// its current bookability.
package search

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerhub/searchsync/model"
)

// OfferLoader is the narrow view of the datastore the pipeline needs.
type OfferLoader interface {
	// GetOffersByIDs loads the offer aggregates in a single eager fetch
	// (venue, offerer, stocks and criteria included) to avoid N+1 queries.
	GetOffersByIDs(ctx context.Context, offerIDs []int64) ([]*model.Offer, error)
	// GetPaginatedOfferIDsByVenue returns one page of a venue's offer ids.
	// An empty page ends the venue's fan-out.
	GetPaginatedOfferIDsByVenue(ctx context.Context, venueID int64, limit, page int) ([]int64, error)
}

// Options sizes the drain batches. Zero values fall back to defaults.
type Options struct {
	OfferIDsChunkSize      int64
	VenueIDsChunkSize      int64
	OffersByVenueChunkSize int
}

// Service wires a backend and an offer loader into the indexation pipeline.
type Service struct {
	backend Backend
	offers  OfferLoader
	opts    Options
}

// NewService builds the pipeline service.
func NewService(backend Backend, offers OfferLoader, opts Options) *Service {
	if opts.OfferIDsChunkSize <= 0 {
		opts.OfferIDsChunkSize = 1000
	}
	if opts.VenueIDsChunkSize <= 0 {
		opts.VenueIDsChunkSize = 100
	}
	if opts.OffersByVenueChunkSize <= 0 {
		opts.OffersByVenueChunkSize = 1000
	}
	return &Service{backend: backend, offers: offers, opts: opts}
}

// Backend returns the backend the service was built with.
func (s *Service) Backend() Backend {
	return s.backend
}

// AsyncIndexOfferIDs asks for an asynchronous reindexation of the given
// offers. It returns quickly; the real work happens when a scheduled drain
// pops the ids back off the queue.
func (s *Service) AsyncIndexOfferIDs(ctx context.Context, offerIDs []int64) {
	s.backend.EnqueueOfferIDs(ctx, offerIDs)
}

// AsyncIndexVenueIDs asks for an asynchronous reindexation of every offer of
// the given venues.
func (s *Service) AsyncIndexVenueIDs(ctx context.Context, venueIDs []int64) {
	s.backend.EnqueueVenueIDs(ctx, venueIDs)
}

// IndexOffersInQueue pops offers from the indexation queue and reindexes
// them. With fromErrorQueue it drains the error queue instead.
//
// When stopOnlyWhenEmpty is false (the cron mode), the loop pops at least
// once and stops when fewer than a chunk's worth of ids remain, otherwise a
// busy queue would keep a single cron invocation alive forever. Overlapping
// invocations are safe: both pop, so no id is processed twice from one
// enqueue.
//
// When stopOnlyWhenEmpty is true (the administrative mode), the loop stops
// only when a pop comes back empty.
func (s *Service) IndexOffersInQueue(ctx context.Context, stopOnlyWhenEmpty, fromErrorQueue bool) {
	for {
		// Pop, never read-then-delete: two concurrent drains reading the
		// same head batch and trimming twice would drop ids that were
		// never processed.
		offerIDs := s.backend.PopOfferIDsFromQueue(ctx, s.opts.OfferIDsChunkSize, fromErrorQueue)
		if len(offerIDs) == 0 {
			break
		}

		logrus.WithField("count", len(offerIDs)).Info("fetched offers from indexation queue")
		s.ReindexOfferIDs(ctx, offerIDs)
		logrus.WithFields(logrus.Fields{
			"count":            len(offerIDs),
			"from_error_queue": fromErrorQueue,
		}).Info("reindexed offers from queue")

		leftToProcess := s.backend.CountOffersToIndexFromQueue(ctx, fromErrorQueue)
		if !stopOnlyWhenEmpty && leftToProcess < s.opts.OfferIDsChunkSize {
			break
		}
	}
}

// IndexVenuesInQueue pops venues from the venue queue and reindexes each
// venue's offers page by page. The venue queue is then trimmed by count, not
// by exact id, on the list-backed representation; see
// ListQueue.DeleteVenueIDs for the tolerated race.
func (s *Service) IndexVenuesInQueue(ctx context.Context) {
	venueIDs := s.backend.GetVenueIDsFromQueue(ctx, s.opts.VenueIDsChunkSize)
	for _, venueID := range venueIDs {
		logrus.WithField("venue", venueID).Info("starting to index offers of venue")
		for page := 0; ; page++ {
			offerIDs, err := s.offers.GetPaginatedOfferIDsByVenue(ctx, venueID, s.opts.OffersByVenueChunkSize, page)
			if err != nil {
				logrus.WithError(err).WithField("venue", venueID).Error("could not fetch offer ids of venue")
				break
			}
			if len(offerIDs) == 0 {
				break
			}
			s.ReindexOfferIDs(ctx, offerIDs)
		}
		logrus.WithField("venue", venueID).Info("finished indexing offers of venue")
	}
	s.backend.DeleteVenueIDsFromQueue(ctx, venueIDs)
}

// UnindexOfferIDs removes offers from the external index by id, bypassing
// the bookability check. Used for offers that are ineligible by definition,
// such as expired ones.
func (s *Service) UnindexOfferIDs(ctx context.Context, offerIDs []int64) error {
	if len(offerIDs) == 0 {
		return nil
	}
	return s.backend.UnindexOfferIDs(ctx, offerIDs)
}
