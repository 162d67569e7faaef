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
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// QueueKeys names the four Redis buckets a backend works with: the pending
// offer queue, the error queue, the pending venue queue and the shadow set of
// currently indexed offer ids.
type QueueKeys struct {
	PendingOffers string
	ErrorOffers   string
	PendingVenues string
	IndexedOffers string
}

// Every queue operation is best effort: producers are web request handlers
// whose requests must not fail because Redis is unreachable, and consumers
// can always catch up on the next scheduled run. Failures are logged and the
// operation degrades to a safe default (no-op, empty batch, zero or false).

// ListQueue keeps pending ids in Redis lists and the shadow indexed set in a
// hash. Pops preserve FIFO order, though no consumer may rely on that.
type ListQueue struct {
	client redis.UniversalClient
	keys   QueueKeys
}

// NewListQueue returns a list-backed queue over the given buckets.
func NewListQueue(client redis.UniversalClient, keys QueueKeys) *ListQueue {
	return &ListQueue{client: client, keys: keys}
}

func (q *ListQueue) offerKey(fromErrorQueue bool) string {
	if fromErrorQueue {
		return q.keys.ErrorOffers
	}
	return q.keys.PendingOffers
}

// EnqueueOfferIDs appends offer ids to the pending queue.
func (q *ListQueue) EnqueueOfferIDs(ctx context.Context, offerIDs []int64) {
	q.push(ctx, q.keys.PendingOffers, offerIDs, "could not add offers to indexation queue")
}

// EnqueueOfferIDsInError appends offer ids to the error queue.
func (q *ListQueue) EnqueueOfferIDsInError(ctx context.Context, offerIDs []int64) {
	q.push(ctx, q.keys.ErrorOffers, offerIDs, "could not add offers to error queue")
}

// EnqueueVenueIDs appends venue ids to the venue queue.
func (q *ListQueue) EnqueueVenueIDs(ctx context.Context, venueIDs []int64) {
	q.push(ctx, q.keys.PendingVenues, venueIDs, "could not add venues to indexation queue")
}

func (q *ListQueue) push(ctx context.Context, key string, ids []int64, failureMsg string) {
	if len(ids) == 0 {
		return
	}
	if err := q.client.RPush(ctx, key, idsToArgs(ids)...).Err(); err != nil {
		logrus.WithError(err).WithField("ids", ids).Error(failureMsg)
	}
}

// PopOfferIDs atomically removes and returns up to count offer ids. The read
// and the trim run in a single transactional pipeline so two concurrent
// drainers never receive the same batch: a plain read followed by a separate
// delete would let both read the head of the list before either trims it.
func (q *ListQueue) PopOfferIDs(ctx context.Context, count int64, fromErrorQueue bool) []int64 {
	key := q.offerKey(fromErrorQueue)

	pipe := q.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, count-1)
	pipe.LTrim(ctx, key, count, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).Error("could not pop offer ids to index from queue")
		return nil
	}
	return parseIDs(rangeCmd.Val())
}

// GetVenueIDs reads up to count venue ids without removing them.
func (q *ListQueue) GetVenueIDs(ctx context.Context, count int64) []int64 {
	raw, err := q.client.LRange(ctx, q.keys.PendingVenues, 0, count-1).Result()
	if err != nil {
		logrus.WithError(err).Error("could not get venue ids to index from queue")
		return nil
	}
	return parseIDs(raw)
}

// DeleteVenueIDs trims as many entries from the head of the venue queue as
// there are ids in the argument. It does not match the exact ids: a venue
// pushed concurrently with the trim survives because producers push to the
// tail, but a venue pushed twice may lose its second entry. This is a known
// approximation, not a bug to fix here.
func (q *ListQueue) DeleteVenueIDs(ctx context.Context, venueIDs []int64) {
	if len(venueIDs) == 0 {
		return
	}
	if err := q.client.LTrim(ctx, q.keys.PendingVenues, int64(len(venueIDs)), -1).Err(); err != nil {
		logrus.WithError(err).Error("could not delete indexed venue ids from queue")
	}
}

// CountPending returns the length of the pending (or error) offer queue, or
// zero when the queue cannot be reached.
func (q *ListQueue) CountPending(ctx context.Context, fromErrorQueue bool) int64 {
	count, err := q.client.LLen(ctx, q.offerKey(fromErrorQueue)).Result()
	if err != nil {
		logrus.WithError(err).Error("could not count offers left to index from queue")
		return 0
	}
	return count
}

// CheckIndexed reports whether the offer id is in the shadow indexed set.
func (q *ListQueue) CheckIndexed(ctx context.Context, offerID int64) bool {
	exists, err := q.client.HExists(ctx, q.keys.IndexedOffers, formatID(offerID)).Result()
	if err != nil {
		logrus.WithError(err).WithField("offer", offerID).Error("could not check indexed offers set")
		return false
	}
	return exists
}

// MarkIndexed records offer ids as present in the external index. The hash
// value is empty: only membership matters, and empty values keep Redis
// memory usage low.
func (q *ListQueue) MarkIndexed(ctx context.Context, offerIDs []int64) {
	if len(offerIDs) == 0 {
		return
	}
	pipe := q.client.TxPipeline()
	for _, id := range offerIDs {
		pipe.HSet(ctx, q.keys.IndexedOffers, formatID(id), "")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("offers", offerIDs).Error("could not add to set of indexed offers")
	}
}

// UnmarkIndexed removes offer ids from the shadow indexed set.
func (q *ListQueue) UnmarkIndexed(ctx context.Context, offerIDs []int64) {
	if len(offerIDs) == 0 {
		return
	}
	fields := make([]string, len(offerIDs))
	for i, id := range offerIDs {
		fields[i] = formatID(id)
	}
	if err := q.client.HDel(ctx, q.keys.IndexedOffers, fields...).Err(); err != nil {
		logrus.WithError(err).WithField("offers", offerIDs).Error("could not remove offers from indexed offers set")
	}
}

// ClearIndexed drops the whole shadow indexed set.
func (q *ListQueue) ClearIndexed(ctx context.Context) {
	if err := q.client.Del(ctx, q.keys.IndexedOffers).Err(); err != nil {
		logrus.WithError(err).Error("could not clear indexed offers set")
	}
}

// SetQueue keeps pending ids in Redis sets. Enqueueing the same id twice
// collapses into one entry and pops return ids in no particular order.
type SetQueue struct {
	client redis.UniversalClient
	keys   QueueKeys
}

// NewSetQueue returns a set-backed queue over the given buckets.
func NewSetQueue(client redis.UniversalClient, keys QueueKeys) *SetQueue {
	return &SetQueue{client: client, keys: keys}
}

func (q *SetQueue) offerKey(fromErrorQueue bool) string {
	if fromErrorQueue {
		return q.keys.ErrorOffers
	}
	return q.keys.PendingOffers
}

// EnqueueOfferIDs adds offer ids to the pending set.
func (q *SetQueue) EnqueueOfferIDs(ctx context.Context, offerIDs []int64) {
	q.add(ctx, q.keys.PendingOffers, offerIDs, "could not add offers to indexation queue")
}

// EnqueueOfferIDsInError adds offer ids to the error set.
func (q *SetQueue) EnqueueOfferIDsInError(ctx context.Context, offerIDs []int64) {
	q.add(ctx, q.keys.ErrorOffers, offerIDs, "could not add offers to error queue")
}

// EnqueueVenueIDs adds venue ids to the venue set.
func (q *SetQueue) EnqueueVenueIDs(ctx context.Context, venueIDs []int64) {
	q.add(ctx, q.keys.PendingVenues, venueIDs, "could not add venues to indexation queue")
}

func (q *SetQueue) add(ctx context.Context, key string, ids []int64, failureMsg string) {
	if len(ids) == 0 {
		return
	}
	if err := q.client.SAdd(ctx, key, idsToArgs(ids)...).Err(); err != nil {
		logrus.WithError(err).WithField("ids", ids).Error(failureMsg)
	}
}

// PopOfferIDs atomically removes and returns up to count random members.
// SPOP removes what it returns in one command, so concurrent drainers never
// receive overlapping batches.
func (q *SetQueue) PopOfferIDs(ctx context.Context, count int64, fromErrorQueue bool) []int64 {
	raw, err := q.client.SPopN(ctx, q.offerKey(fromErrorQueue), count).Result()
	if err != nil {
		logrus.WithError(err).Error("could not pop offer ids to index from queue")
		return nil
	}
	return parseIDs(raw)
}

// GetVenueIDs reads up to count random venue ids without removing them.
func (q *SetQueue) GetVenueIDs(ctx context.Context, count int64) []int64 {
	raw, err := q.client.SRandMemberN(ctx, q.keys.PendingVenues, count).Result()
	if err != nil {
		logrus.WithError(err).Error("could not get venue ids to index from queue")
		return nil
	}
	return parseIDs(raw)
}

// DeleteVenueIDs removes exactly the given members from the venue set.
func (q *SetQueue) DeleteVenueIDs(ctx context.Context, venueIDs []int64) {
	if len(venueIDs) == 0 {
		return
	}
	if err := q.client.SRem(ctx, q.keys.PendingVenues, idsToArgs(venueIDs)...).Err(); err != nil {
		logrus.WithError(err).Error("could not delete indexed venue ids from queue")
	}
}

// CountPending returns the cardinality of the pending (or error) offer set,
// or zero when the queue cannot be reached.
func (q *SetQueue) CountPending(ctx context.Context, fromErrorQueue bool) int64 {
	count, err := q.client.SCard(ctx, q.offerKey(fromErrorQueue)).Result()
	if err != nil {
		logrus.WithError(err).Error("could not count offers left to index from queue")
		return 0
	}
	return count
}

// CheckIndexed reports whether the offer id is in the shadow indexed set.
func (q *SetQueue) CheckIndexed(ctx context.Context, offerID int64) bool {
	exists, err := q.client.SIsMember(ctx, q.keys.IndexedOffers, formatID(offerID)).Result()
	if err != nil {
		logrus.WithError(err).WithField("offer", offerID).Error("could not check indexed offers set")
		return false
	}
	return exists
}

// MarkIndexed records offer ids as present in the external index.
func (q *SetQueue) MarkIndexed(ctx context.Context, offerIDs []int64) {
	if len(offerIDs) == 0 {
		return
	}
	if err := q.client.SAdd(ctx, q.keys.IndexedOffers, idsToArgs(offerIDs)...).Err(); err != nil {
		logrus.WithError(err).WithField("offers", offerIDs).Error("could not add to set of indexed offers")
	}
}

// UnmarkIndexed removes offer ids from the shadow indexed set.
func (q *SetQueue) UnmarkIndexed(ctx context.Context, offerIDs []int64) {
	if len(offerIDs) == 0 {
		return
	}
	if err := q.client.SRem(ctx, q.keys.IndexedOffers, idsToArgs(offerIDs)...).Err(); err != nil {
		logrus.WithError(err).WithField("offers", offerIDs).Error("could not remove offers from indexed offers set")
	}
}

// ClearIndexed drops the whole shadow indexed set.
func (q *SetQueue) ClearIndexed(ctx context.Context) {
	if err := q.client.Del(ctx, q.keys.IndexedOffers).Err(); err != nil {
		logrus.WithError(err).Error("could not clear indexed offers set")
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func idsToArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// parseIDs converts raw Redis members to ids, dropping duplicates and
// anything that does not parse.
func parseIDs(raw []string) []int64 {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, member := range raw {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			logrus.WithField("member", member).Warn("skipping unparsable queue entry")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
