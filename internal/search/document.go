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
	"sort"
	"time"

	"github.com/offerhub/searchsync/model"
)

// Offers without venue coordinates (digital offers) are geolocated to a
// fixed point near the geographic center of metropolitan France.
const (
	DefaultLatitude  = 47.158459
	DefaultLongitude = 2.409289
)

// Geoloc is the geo field understood by the search engines.
type Geoloc struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OfferDocument is the denormalized offer part of an indexed document.
type OfferDocument struct {
	Author            string    `json:"author"`
	Category          string    `json:"category"`
	RankingWeight     *int64    `json:"rankingWeight"`
	DateCreated       int64     `json:"dateCreated"`
	Dates             []int64   `json:"dates"`
	Description       string    `json:"description"`
	ID                string    `json:"id"`
	PK                int64     `json:"pk"`
	ISBN              string    `json:"isbn"`
	IsDigital         bool      `json:"isDigital"`
	IsDuo             bool      `json:"isDuo"`
	IsEvent           bool      `json:"isEvent"`
	IsThing           bool      `json:"isThing"`
	Label             string    `json:"label"`
	MusicSubType      string    `json:"musicSubType"`
	MusicType         string    `json:"musicType"`
	Name              string    `json:"name"`
	Performer         string    `json:"performer"`
	Prices            []float64 `json:"prices"`
	PriceMin          float64   `json:"priceMin"`
	PriceMax          float64   `json:"priceMax"`
	ShowSubType       string    `json:"showSubType"`
	ShowType          string    `json:"showType"`
	Speaker           string    `json:"speaker"`
	StageDirector     string    `json:"stageDirector"`
	StocksDateCreated []int64   `json:"stocksDateCreated"`
	ThumbURL          string    `json:"thumbUrl"`
	Tags              []string  `json:"tags"`
	Times             []int64   `json:"times"`
	Type              string    `json:"type"`
	Visa              string    `json:"visa"`
	WithdrawalDetails string    `json:"withdrawalDetails"`
}

// OffererDocument is the offerer part of an indexed document.
type OffererDocument struct {
	Name string `json:"name"`
}

// VenueDocument is the venue part of an indexed document.
type VenueDocument struct {
	City            string `json:"city"`
	DepartementCode string `json:"departementCode"`
	Name            string `json:"name"`
	PublicName      string `json:"publicName"`
}

// Document is the external index's view of one offer, keyed by offer id.
type Document struct {
	ObjectID int64           `json:"objectID"`
	Offer    OfferDocument   `json:"offer"`
	Offerer  OffererDocument `json:"offerer"`
	Venue    VenueDocument   `json:"venue"`
	Geoloc   Geoloc          `json:"_geoloc"`
}

// BuildDocument transforms an offer aggregate into the document submitted to
// the external index. It is a pure function of its arguments: no I/O, no
// clock reads. List-valued numeric fields are sorted ascending and times are
// deduplicated, so the same aggregate always yields the same document.
func BuildDocument(offer *model.Offer, now time.Time) Document {
	venue := offer.Venue
	stocks := offer.BookableStocks(now)

	prices := make([]float64, len(stocks))
	for i, stock := range stocks {
		prices[i], _ = stock.Price.Float64()
	}
	sort.Float64s(prices)

	var priceMin, priceMax float64
	if len(prices) > 0 {
		priceMin = prices[0]
		priceMax = prices[len(prices)-1]
	}

	var dates, times []int64
	if offer.IsEvent {
		seen := make(map[int64]struct{})
		for _, stock := range stocks {
			if stock.BeginningDatetime == nil {
				continue
			}
			dates = append(dates, stock.BeginningDatetime.Unix())
			secs := secondsIntoDay(*stock.BeginningDatetime)
			if _, dup := seen[secs]; !dup {
				seen[secs] = struct{}{}
				times = append(times, secs)
			}
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	}

	stocksDateCreated := make([]int64, len(stocks))
	for i, stock := range stocks {
		stocksDateCreated[i] = stock.DateCreated.Unix()
	}
	sort.Slice(stocksDateCreated, func(i, j int) bool { return stocksDateCreated[i] < stocksDateCreated[j] })

	tags := make([]string, len(offer.Criteria))
	for i, criterion := range offer.Criteria {
		tags[i] = criterion.Name
	}

	geoloc := Geoloc{Lat: DefaultLatitude, Lng: DefaultLongitude}
	if venue.HasCoordinates() {
		geoloc = Geoloc{Lat: *venue.Latitude, Lng: *venue.Longitude}
	}

	return Document{
		ObjectID: offer.ID,
		Offer: OfferDocument{
			Author:            offer.Extra.Author,
			Category:          offer.Category,
			RankingWeight:     offer.RankingWeight,
			DateCreated:       offer.DateCreated.Unix(),
			Dates:             dates,
			Description:       offer.Description,
			ID:                model.HumanizeID(offer.ID),
			PK:                offer.ID,
			ISBN:              isbnOrVisa(offer),
			IsDigital:         offer.IsDigital,
			IsDuo:             offer.IsDuo,
			IsEvent:           offer.IsEvent,
			IsThing:           offer.IsThing(),
			Label:             offer.Label,
			MusicSubType:      offer.Extra.MusicSubType,
			MusicType:         offer.Extra.MusicType,
			Name:              offer.Name,
			Performer:         offer.Extra.Performer,
			Prices:            prices,
			PriceMin:          priceMin,
			PriceMax:          priceMax,
			ShowSubType:       offer.Extra.ShowSubType,
			ShowType:          offer.Extra.ShowType,
			Speaker:           offer.Extra.Speaker,
			StageDirector:     offer.Extra.StageDirector,
			StocksDateCreated: stocksDateCreated,
			ThumbURL:          offer.ThumbURL,
			Tags:              tags,
			Times:             times,
			Type:              offer.Type,
			Visa:              offer.Extra.Visa,
			WithdrawalDetails: offer.WithdrawalDetails,
		},
		Offerer: OffererDocument{
			Name: venue.Offerer.Name,
		},
		Venue: VenueDocument{
			City:            venue.City,
			DepartementCode: venue.DepartementCode,
			Name:            venue.Name,
			PublicName:      venue.PublicName,
		},
		Geoloc: geoloc,
	}
}

// isbnOrVisa falls back to the visa number when a book has no ISBN. The app
// deduplicates on this field, so it must be filled for movies as well.
func isbnOrVisa(offer *model.Offer) string {
	if offer.Extra.ISBN != "" {
		return offer.Extra.ISBN
	}
	return offer.Extra.Visa
}

func secondsIntoDay(t time.Time) int64 {
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
