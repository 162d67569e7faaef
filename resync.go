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

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/offerhub/searchsync/config"
	redlock "github.com/offerhub/searchsync/internal/lock"
)

const (
	resyncLockKey = "search:resync-lock"
	// resyncLockTTL bounds how long a crashed resync keeps the lock.
	resyncLockTTL = 30 * time.Minute
)

// ResyncOptions controls a full reindexation from the database.
type ResyncOptions struct {
	// ClearIndex drops every document from the index before reindexing.
	ClearIndex bool
	// ClearShadow resets the set of offer ids known to be indexed. This is
	// the recovery path when the shadow set has drifted from the real index:
	// combined with ClearIndex it rebuilds both from scratch.
	ClearShadow bool
	// StartingPage is the zero-based first page of active offer ids to
	// process. EndingPage, when positive, stops the resync before that page.
	StartingPage int
	EndingPage   int
	// Limit overrides the configured database page size.
	Limit int
}

// ProcessOffersFromDatabase walks every active offer in the database and
// reconciles each page against the index, bypassing the Redis queues. This is
// the full resync used after an index loss or a shadow set drift.
func (s *Searchsync) ProcessOffersFromDatabase(ctx context.Context, opts ResyncOptions) error {
	configuration, err := config.Fetch()
	if err != nil {
		return err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = configuration.Search.DatabasePageSize
	}

	// Two concurrent resyncs would race each other's ClearIndex and double
	// the load on the database, so a Redis lock keeps the walk exclusive.
	locker := redlock.NewLocker(s.redis, resyncLockKey, uuid.New().String())
	if err := locker.Lock(ctx, resyncLockTTL); err != nil {
		return err
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.Error(err)
		}
	}()

	if opts.ClearIndex {
		logrus.Info("clearing the search index")
		if err := s.backend.UnindexAllOffers(ctx); err != nil {
			return err
		}
	}
	if opts.ClearShadow {
		logrus.Info("clearing the indexed offers set")
		s.backend.ClearIndexedOffers(ctx)
	}

	page := opts.StartingPage
	for {
		if opts.EndingPage > 0 && page >= opts.EndingPage {
			logrus.WithField("page", page).Info("stopping at the requested ending page")
			return nil
		}

		offerIDs, err := s.fetchActiveOfferIDs(ctx, limit, page)
		if err != nil {
			return err
		}
		if len(offerIDs) == 0 {
			logrus.WithField("page", page).Info("processed all offers from the database")
			return nil
		}

		s.service.ReindexOfferIDs(ctx, offerIDs)
		logrus.WithFields(logrus.Fields{"page": page, "count": len(offerIDs)}).Info("processed offers page")

		// A resync of a large catalog can outlive the initial TTL.
		if err := locker.ExtendLock(ctx, resyncLockTTL); err != nil {
			logrus.Error(err)
		}
		page++
	}
}

// fetchActiveOfferIDs retries transient database failures so a multi-hour
// resync does not abort on a single dropped connection.
func (s *Searchsync) fetchActiveOfferIDs(ctx context.Context, limit, page int) ([]int64, error) {
	var offerIDs []int64
	operation := func() error {
		var err error
		offerIDs, err = s.datasource.GetPaginatedActiveOfferIDs(ctx, limit, page)
		return err
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, err
	}
	return offerIDs, nil
}
