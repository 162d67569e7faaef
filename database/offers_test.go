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
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/offerhub/searchsync/internal/apierror"
	"github.com/stretchr/testify/assert"
)

var offerColumns = []string{
	"id", "name", "description", "is_active", "is_duo", "is_digital", "is_event",
	"category", "label", "type", "ranking_weight", "withdrawal_details", "thumb_url", "date_created",
	"author", "stage_director", "visa", "isbn", "speaker", "performer",
	"show_type", "show_sub_type", "music_type", "music_sub_type",
	"venue_id", "venue_name", "public_name", "city", "departement_code", "latitude", "longitude",
	"is_virtual", "venue_validation_token",
	"offerer_id", "offerer_name", "offerer_is_active", "offerer_validation_token",
}

var stockColumns = []string{
	"id", "offer_id", "price", "quantity", "booked",
	"is_soft_deleted", "beginning_datetime", "booking_limit_datetime", "date_created",
}

func TestGetOffersByIDs_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	created := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT o.id, o.name").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(offerColumns).AddRow(
			int64(42), "Concert", "A concert", true, false, false, true,
			"MUSIQUE", "Concert ou festival", "EventType.MUSIQUE", int64(3), "At the door", "/thumbs/42", created,
			"", "", "", "", "", "Some Band",
			"800", "801", "", "",
			int64(7), "Le Zenith", "Le Zénith de Paris", "Paris", "75", 48.892, 2.394,
			false, "",
			int64(3), "Culture SARL", true, "",
		))
	mock.ExpectQuery("SELECT s.id, s.offer_id, s.price").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(stockColumns).
			AddRow(int64(400), int64(42), "25.50", int64(100), int64(10), false, created.AddDate(0, 1, 0), created.AddDate(0, 0, 20), created).
			AddRow(int64(401), int64(42), "12.00", nil, int64(0), false, nil, nil, created))
	mock.ExpectQuery("SELECT oc.offer_id, c.id, c.name").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"offer_id", "id", "name"}).
			AddRow(int64(42), int64(9), "Coup de coeur"))

	offers, err := ds.GetOffersByIDs(context.Background(), []int64{42})
	assert.NoError(t, err)
	assert.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, int64(42), offer.ID)
	assert.Equal(t, "Concert", offer.Name)
	assert.True(t, offer.IsEvent)
	assert.NotNil(t, offer.RankingWeight)
	assert.Equal(t, int64(3), *offer.RankingWeight)

	assert.Equal(t, "Le Zenith", offer.Venue.Name)
	assert.NotNil(t, offer.Venue.Latitude)
	assert.Equal(t, "Culture SARL", offer.Venue.Offerer.Name)
	assert.True(t, offer.Venue.IsValidated())

	assert.Len(t, offer.Stocks, 2)
	assert.Equal(t, "25.5", offer.Stocks[0].Price.String())
	assert.NotNil(t, offer.Stocks[0].RemainingQuantity)
	assert.Equal(t, int64(90), *offer.Stocks[0].RemainingQuantity)
	assert.Nil(t, offer.Stocks[1].RemainingQuantity)
	assert.Nil(t, offer.Stocks[1].BookingLimitDatetime)

	assert.Len(t, offer.Criteria, 1)
	assert.Equal(t, "Coup de coeur", offer.Criteria[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOffersByIDs_MissingOffers(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT o.id, o.name").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(offerColumns))

	offers, err := ds.GetOffersByIDs(context.Background(), []int64{404})
	assert.NoError(t, err)
	assert.Empty(t, offers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOffersByIDs_EmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	offers, err := ds.GetOffersByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, offers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOffersByIDs_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT o.id, o.name").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err = ds.GetOffersByIDs(context.Background(), []int64{1})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrDatastore, apiErr.Code)
}

func TestGetPaginatedOfferIDsByVenue(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT id FROM offers").
		WithArgs(int64(7), 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)).AddRow(int64(11)))

	ids, err := ds.GetPaginatedOfferIDsByVenue(context.Background(), 7, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaginatedActiveOfferIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT id FROM offers").
		WithArgs(3, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	ids, err := ds.GetPaginatedActiveOfferIDs(context.Background(), 3, 0)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestGetExpiredOfferIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	from := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT s.offer_id FROM stocks").
		WithArgs(from, to, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"offer_id"}).AddRow(int64(5)).AddRow(int64(8)))

	ids, err := ds.GetExpiredOfferIDs(context.Background(), from, to, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int64{5, 8}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
