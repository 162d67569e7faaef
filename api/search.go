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

package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/offerhub/searchsync/api/model"
)

// EnqueueOffers queues offers for the next reindexation pass. The queue is
// idempotent at reconciliation time, so callers may enqueue the same id from
// several places without coordination.
func (a Api) EnqueueOffers(c *gin.Context) {
	var req model2.EnqueueOffers
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateEnqueueOffers(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a.searchsync.AsyncIndexOfferIDs(c.Request.Context(), req.OfferIDs)
	c.JSON(http.StatusAccepted, gin.H{"queued": len(req.OfferIDs)})
}

// EnqueueVenues queues venues whose offers all need reindexation.
func (a Api) EnqueueVenues(c *gin.Context) {
	var req model2.EnqueueVenues
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateEnqueueVenues(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a.searchsync.AsyncIndexVenueIDs(c.Request.Context(), req.VenueIDs)
	c.JSON(http.StatusAccepted, gin.H{"queued": len(req.VenueIDs)})
}

// GetQueueStats reports the depth of the pending and error queues.
func (a Api) GetQueueStats(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"offers_to_index": a.searchsync.CountOffersToIndex(ctx),
		"offers_in_error": a.searchsync.CountOffersInError(ctx),
	})
}

// DrainErrorQueue retries every offer parked in the error queue. Erroring
// offers are only retried through this explicit call, never automatically.
func (a Api) DrainErrorQueue(c *gin.Context) {
	count := a.searchsync.CountOffersInError(c.Request.Context())

	go func() {
		a.searchsync.IndexOffersInErrorQueue(context.Background(), true)
	}()

	c.JSON(http.StatusAccepted, gin.H{"draining": count})
}
