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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/offerhub/searchsync/model"
)

func stockWithPrice(offerID int64, price int64) *model.Stock {
	remaining := int64(10)
	return &model.Stock{
		OfferID:           offerID,
		Price:             decimal.NewFromInt(price),
		RemainingQuantity: &remaining,
		DateCreated:       time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
	}
}

func documentOffer() *model.Offer {
	return &model.Offer{
		ID:          42,
		Name:        "Une soirée",
		Description: "Une description",
		IsActive:    true,
		Category:    "SPECTACLE",
		Type:        "EventType.SPECTACLE_VIVANT",
		DateCreated: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		Venue: &model.Venue{
			ID:              7,
			Name:            "Le Théâtre",
			PublicName:      "Le Grand Théâtre",
			City:            "Nantes",
			DepartementCode: "44",
			Offerer:         &model.Offerer{ID: 3, Name: "Spectacles SA", IsActive: true},
		},
		Criteria: []model.Criterion{{ID: 1, Name: "Coup de coeur"}, {ID: 2, Name: "Rentrée"}},
	}
}

func TestBuildDocument_PricesSortedWithBounds(t *testing.T) {
	offer := documentOffer()
	offer.Stocks = []*model.Stock{
		stockWithPrice(42, 20),
		stockWithPrice(42, 5),
		stockWithPrice(42, 40),
	}

	doc := BuildDocument(offer, time.Now())

	assert.Equal(t, []float64{5, 20, 40}, doc.Offer.Prices)
	assert.Equal(t, float64(5), doc.Offer.PriceMin)
	assert.Equal(t, float64(40), doc.Offer.PriceMax)
}

func TestBuildDocument_ExcludesUnbookableStocks(t *testing.T) {
	now := time.Now()
	offer := documentOffer()
	soldOut := stockWithPrice(42, 99)
	none := int64(0)
	soldOut.RemainingQuantity = &none
	deleted := stockWithPrice(42, 98)
	deleted.IsSoftDeleted = true
	offer.Stocks = []*model.Stock{stockWithPrice(42, 10), soldOut, deleted}

	doc := BuildDocument(offer, now)

	assert.Equal(t, []float64{10}, doc.Offer.Prices)
	assert.Len(t, doc.Offer.StocksDateCreated, 1)
}

func TestBuildDocument_EventDatesAndTimes(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	offer := documentOffer()
	offer.IsEvent = true

	first := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)
	second := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)
	// Same time of day as the first occurrence, different date.
	third := time.Date(2026, 3, 12, 20, 30, 0, 0, time.UTC)

	s1, s2, s3 := stockWithPrice(42, 10), stockWithPrice(42, 10), stockWithPrice(42, 10)
	s1.BeginningDatetime, s1.BookingLimitDatetime = &third, &third
	s2.BeginningDatetime, s2.BookingLimitDatetime = &first, &first
	s3.BeginningDatetime, s3.BookingLimitDatetime = &second, &second
	offer.Stocks = []*model.Stock{s1, s2, s3}

	doc := BuildDocument(offer, now)

	assert.Equal(t, []int64{first.Unix(), second.Unix(), third.Unix()}, doc.Offer.Dates)
	// 18:00 sorts before 20:30, and the duplicate 20:30 collapses.
	assert.Equal(t, []int64{18 * 3600, 20*3600 + 30*60}, doc.Offer.Times)
	assert.True(t, doc.Offer.IsEvent)
	assert.False(t, doc.Offer.IsThing)
}

func TestBuildDocument_ThingHasNoDates(t *testing.T) {
	offer := documentOffer()
	offer.Stocks = []*model.Stock{stockWithPrice(42, 10)}

	doc := BuildDocument(offer, time.Now())

	assert.Empty(t, doc.Offer.Dates)
	assert.Empty(t, doc.Offer.Times)
	assert.True(t, doc.Offer.IsThing)
}

func TestBuildDocument_GeolocFallback(t *testing.T) {
	offer := documentOffer()
	offer.Stocks = []*model.Stock{stockWithPrice(42, 10)}

	doc := BuildDocument(offer, time.Now())
	assert.Equal(t, Geoloc{Lat: DefaultLatitude, Lng: DefaultLongitude}, doc.Geoloc)

	lat, lng := 47.218371, -1.553621
	offer.Venue.Latitude, offer.Venue.Longitude = &lat, &lng
	doc = BuildDocument(offer, time.Now())
	assert.Equal(t, Geoloc{Lat: lat, Lng: lng}, doc.Geoloc)
}

func TestBuildDocument_IdentityAndMetadata(t *testing.T) {
	offer := documentOffer()
	offer.Stocks = []*model.Stock{stockWithPrice(42, 10)}
	offer.Extra.Visa = "123456"

	doc := BuildDocument(offer, time.Now())

	assert.Equal(t, int64(42), doc.ObjectID)
	assert.Equal(t, int64(42), doc.Offer.PK)
	assert.Equal(t, model.HumanizeID(42), doc.Offer.ID)
	// No ISBN: the visa fills the deduplication field.
	assert.Equal(t, "123456", doc.Offer.ISBN)
	assert.Equal(t, []string{"Coup de coeur", "Rentrée"}, doc.Offer.Tags)
	assert.Equal(t, "Spectacles SA", doc.Offerer.Name)
	assert.Equal(t, "Le Grand Théâtre", doc.Venue.PublicName)
	assert.Equal(t, "44", doc.Venue.DepartementCode)
}

func TestBuildDocument_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	offer := documentOffer()
	offer.IsEvent = true
	beginning := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	s := stockWithPrice(42, 10)
	s.BeginningDatetime, s.BookingLimitDatetime = &beginning, &beginning
	offer.Stocks = []*model.Stock{s, stockWithPrice(42, 20)}

	first := BuildDocument(offer, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildDocument(offer, now))
	}
}
