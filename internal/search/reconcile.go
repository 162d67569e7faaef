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

	"github.com/sirupsen/logrus"

	"github.com/offerhub/searchsync/model"
)

// ReindexOfferIDs reconciles a batch of offer ids against the external
// index: bookable offers are (re)indexed, offers that are gone or no longer
// bookable are removed. The call never returns an error; every failure is
// logged and the affected ids land on the error queue, to be retried by the
// next administrative error-queue drain. Duplicate deliveries are harmless:
// indexing is an upsert and deleting an absent document is a no-op.
//
// This function talks to the external index and may be slow. Request paths
// should call AsyncIndexOfferIDs instead.
func (s *Service) ReindexOfferIDs(ctx context.Context, offerIDs []int64) {
	if len(offerIDs) == 0 {
		return
	}

	offers, err := s.offers.GetOffersByIDs(ctx, offerIDs)
	if err != nil {
		// The datastore being unreachable is as transient as the engine
		// failing; park the whole batch for the next error-queue drain.
		logrus.WithError(err).WithField("offers", offerIDs).Warn("could not load offers to reindex, will automatically retry")
		s.backend.EnqueueOfferIDsInError(ctx, offerIDs)
		return
	}

	now := time.Now()
	var toAdd []*model.Offer
	var toDelete []int64
	found := make(map[int64]struct{}, len(offers))

	for _, offer := range offers {
		found[offer.ID] = struct{}{}
		switch {
		case offer.IsBookable(now):
			toAdd = append(toAdd, offer)
		case s.backend.CheckOfferIsIndexed(ctx, offer.ID):
			toDelete = append(toDelete, offer.ID)
		default:
			// Not bookable and not flagged indexed: skipping the engine
			// call saves a request, at the cost of staleness if the shadow
			// set ever diverges from the real index. The full re-sync
			// entry point is the recourse.
			logrus.WithField("offer", offer.ID).Debug("indexed offers set spared an unnecessary request to the indexation service")
		}
	}

	// Ids the datastore no longer knows must leave the index.
	for _, offerID := range offerIDs {
		if _, ok := found[offerID]; !ok {
			toDelete = append(toDelete, offerID)
		}
	}

	// The add and delete branches are attempted independently: a failing
	// engine call on one side must not starve the other.
	if len(toAdd) > 0 {
		if err := s.backend.IndexOffers(ctx, toAdd); err != nil {
			addIDs := collectOfferIDs(toAdd)
			logrus.WithError(err).WithField("offers", addIDs).Warn("could not reindex offers, will automatically retry")
			s.backend.EnqueueOfferIDsInError(ctx, addIDs)
		}
	}

	if len(toDelete) > 0 {
		if err := s.backend.UnindexOfferIDs(ctx, toDelete); err != nil {
			logrus.WithError(err).WithField("offers", toDelete).Warn("could not unindex offers, will automatically retry")
			s.backend.EnqueueOfferIDsInError(ctx, toDelete)
		}
	}
}
