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

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/offerhub/searchsync/internal/apierror"
	"github.com/offerhub/searchsync/model"
)

// GetOffersByIDs loads offers with their venue, offerer, stocks and criteria
// in three queries, so the bookability predicate never triggers lazy loads.
// Unknown ids are silently absent from the result.
func (d Datasource) GetOffersByIDs(ctx context.Context, offerIDs []int64) ([]*model.Offer, error) {
	if len(offerIDs) == 0 {
		return nil, nil
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT o.id, o.name, o.description, o.is_active, o.is_duo, o.is_digital, o.is_event,
		       o.category, o.label, o.type, o.ranking_weight, o.withdrawal_details, o.thumb_url, o.date_created,
		       o.author, o.stage_director, o.visa, o.isbn, o.speaker, o.performer,
		       o.show_type, o.show_sub_type, o.music_type, o.music_sub_type,
		       v.id, v.name, v.public_name, v.city, v.departement_code, v.latitude, v.longitude,
		       v.is_virtual, v.validation_token,
		       f.id, f.name, f.is_active, f.validation_token
		FROM offers o
		JOIN venues v ON v.id = o.venue_id
		JOIN offerers f ON f.id = v.managing_offerer_id
		WHERE o.id = ANY($1)
	`, pq.Array(offerIDs))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrDatastore, "Failed to retrieve offers", err)
	}
	defer rows.Close()

	offersByID := map[int64]*model.Offer{}
	var offers []*model.Offer

	for rows.Next() {
		offer := model.Offer{Venue: &model.Venue{Offerer: &model.Offerer{}}}
		var rankingWeight sql.NullInt64
		var latitude, longitude sql.NullFloat64
		err = rows.Scan(
			&offer.ID, &offer.Name, &offer.Description, &offer.IsActive, &offer.IsDuo, &offer.IsDigital, &offer.IsEvent,
			&offer.Category, &offer.Label, &offer.Type, &rankingWeight, &offer.WithdrawalDetails, &offer.ThumbURL, &offer.DateCreated,
			&offer.Extra.Author, &offer.Extra.StageDirector, &offer.Extra.Visa, &offer.Extra.ISBN, &offer.Extra.Speaker, &offer.Extra.Performer,
			&offer.Extra.ShowType, &offer.Extra.ShowSubType, &offer.Extra.MusicType, &offer.Extra.MusicSubType,
			&offer.Venue.ID, &offer.Venue.Name, &offer.Venue.PublicName, &offer.Venue.City, &offer.Venue.DepartementCode, &latitude, &longitude,
			&offer.Venue.IsVirtual, &offer.Venue.ValidationToken,
			&offer.Venue.Offerer.ID, &offer.Venue.Offerer.Name, &offer.Venue.Offerer.IsActive, &offer.Venue.Offerer.ValidationToken,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrDatastore, "Failed to scan offer data", err)
		}
		if rankingWeight.Valid {
			offer.RankingWeight = &rankingWeight.Int64
		}
		if latitude.Valid {
			offer.Venue.Latitude = &latitude.Float64
		}
		if longitude.Valid {
			offer.Venue.Longitude = &longitude.Float64
		}
		offersByID[offer.ID] = &offer
		offers = append(offers, &offer)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrDatastore, "Error occurred while iterating over offers", err)
	}
	if len(offers) == 0 {
		return nil, nil
	}

	if err := d.loadStocks(ctx, offersByID); err != nil {
		return nil, err
	}
	if err := d.loadCriteria(ctx, offersByID); err != nil {
		return nil, err
	}
	return offers, nil
}

// loadStocks attaches stocks to the given offers. The remaining quantity is
// computed here from the stock quantity minus non-cancelled bookings; a NULL
// quantity means unlimited and maps to a nil RemainingQuantity.
func (d Datasource) loadStocks(ctx context.Context, offersByID map[int64]*model.Offer) error {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT s.id, s.offer_id, s.price, s.quantity,
		       COALESCE(SUM(b.quantity) FILTER (WHERE NOT b.is_cancelled), 0) AS booked,
		       s.is_soft_deleted, s.beginning_datetime, s.booking_limit_datetime, s.date_created
		FROM stocks s
		LEFT JOIN bookings b ON b.stock_id = s.id
		WHERE s.offer_id = ANY($1)
		GROUP BY s.id
		ORDER BY s.id
	`, pq.Array(offerIDKeys(offersByID)))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrDatastore, "Failed to retrieve stocks", err)
	}
	defer rows.Close()

	for rows.Next() {
		stock := model.Stock{}
		var quantity sql.NullInt64
		var booked int64
		var beginning, bookingLimit sql.NullTime
		err = rows.Scan(
			&stock.ID, &stock.OfferID, &stock.Price, &quantity, &booked,
			&stock.IsSoftDeleted, &beginning, &bookingLimit, &stock.DateCreated,
		)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrDatastore, "Failed to scan stock data", err)
		}
		if quantity.Valid {
			remaining := quantity.Int64 - booked
			stock.RemainingQuantity = &remaining
		}
		if beginning.Valid {
			stock.BeginningDatetime = &beginning.Time
		}
		if bookingLimit.Valid {
			stock.BookingLimitDatetime = &bookingLimit.Time
		}
		if offer, ok := offersByID[stock.OfferID]; ok {
			offer.Stocks = append(offer.Stocks, &stock)
		}
	}
	if err := rows.Err(); err != nil {
		return apierror.NewAPIError(apierror.ErrDatastore, "Error occurred while iterating over stocks", err)
	}
	return nil
}

func (d Datasource) loadCriteria(ctx context.Context, offersByID map[int64]*model.Offer) error {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT oc.offer_id, c.id, c.name
		FROM criteria c
		JOIN offer_criteria oc ON oc.criterion_id = c.id
		WHERE oc.offer_id = ANY($1)
		ORDER BY c.id
	`, pq.Array(offerIDKeys(offersByID)))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrDatastore, "Failed to retrieve criteria", err)
	}
	defer rows.Close()

	for rows.Next() {
		var offerID int64
		criterion := model.Criterion{}
		if err := rows.Scan(&offerID, &criterion.ID, &criterion.Name); err != nil {
			return apierror.NewAPIError(apierror.ErrDatastore, "Failed to scan criterion data", err)
		}
		if offer, ok := offersByID[offerID]; ok {
			offer.Criteria = append(offer.Criteria, criterion)
		}
	}
	if err := rows.Err(); err != nil {
		return apierror.NewAPIError(apierror.ErrDatastore, "Error occurred while iterating over criteria", err)
	}
	return nil
}

// GetPaginatedOfferIDsByVenue returns one page of offer ids attached to a
// venue, ordered by id. Pages are zero-based.
func (d Datasource) GetPaginatedOfferIDsByVenue(ctx context.Context, venueID int64, limit int, page int) ([]int64, error) {
	return d.queryOfferIDs(ctx, `
		SELECT id FROM offers
		WHERE venue_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, venueID, limit, page*limit)
}

// GetPaginatedActiveOfferIDs returns one page of active offer ids, ordered by
// id. Used by the full database resync.
func (d Datasource) GetPaginatedActiveOfferIDs(ctx context.Context, limit int, page int) ([]int64, error) {
	return d.queryOfferIDs(ctx, `
		SELECT id FROM offers
		WHERE is_active
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, page*limit)
}

// GetExpiredOfferIDs returns one page of offer ids whose latest booking limit
// fell within [from, to). Soft-deleted stocks do not count.
func (d Datasource) GetExpiredOfferIDs(ctx context.Context, from time.Time, to time.Time, limit int, page int) ([]int64, error) {
	return d.queryOfferIDs(ctx, `
		SELECT s.offer_id FROM stocks s
		WHERE NOT s.is_soft_deleted AND s.booking_limit_datetime IS NOT NULL
		GROUP BY s.offer_id
		HAVING MAX(s.booking_limit_datetime) >= $1 AND MAX(s.booking_limit_datetime) < $2
		ORDER BY s.offer_id
		LIMIT $3 OFFSET $4
	`, from, to, limit, page*limit)
}

func (d Datasource) queryOfferIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrDatastore, "Failed to retrieve offer ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrDatastore, "Failed to scan offer id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrDatastore, "Error occurred while iterating over offer ids", err)
	}
	return ids, nil
}

func offerIDKeys(offersByID map[int64]*model.Offer) []int64 {
	ids := make([]int64, 0, len(offersByID))
	for id := range offersByID {
		ids = append(ids, id)
	}
	return ids
}
