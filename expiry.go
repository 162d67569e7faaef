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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/offerhub/searchsync/config"
)

// allExpiredOffersFrom is the lower bound used when sweeping every expired
// offer rather than the trailing window.
var allExpiredOffersFrom = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// UnindexExpiredOffers removes offers whose last booking limit has passed.
// The daily sweep covers a two day trailing window ending at today's
// midnight, so a missed run is caught up by the next one. With all set, the
// sweep covers everything since 2000.
func (s *Searchsync) UnindexExpiredOffers(ctx context.Context, now time.Time, all bool) error {
	configuration, err := config.Fetch()
	if err != nil {
		return err
	}
	chunkSize := configuration.Search.DeletingOffersChunkSize

	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -2)
	if all {
		from = allExpiredOffersFrom
	}

	page := 0
	total := 0
	for {
		offerIDs, err := s.datasource.GetExpiredOfferIDs(ctx, from, to, chunkSize, page)
		if err != nil {
			return err
		}
		if len(offerIDs) == 0 {
			break
		}
		if err := s.service.UnindexOfferIDs(ctx, offerIDs); err != nil {
			return err
		}
		total += len(offerIDs)
		page++
	}

	logrus.WithFields(logrus.Fields{
		"from":  from.Format(time.RFC3339),
		"to":    to.Format(time.RFC3339),
		"count": total,
	}).Info("unindexed expired offers")
	return nil
}
