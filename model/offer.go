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

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offerer is the structure that manages one or more venues. An offerer whose
// validation is still pending must not have its offers indexed.
type Offerer struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	IsActive        bool   `json:"is_active"`
	ValidationToken string `json:"validation_token"` // non-empty while validation is pending
}

// IsValidated reports whether the offerer has completed validation.
func (o *Offerer) IsValidated() bool {
	return o.ValidationToken == ""
}

// Venue is the physical or digital place an offer is attached to.
type Venue struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	PublicName      string   `json:"public_name"`
	City            string   `json:"city"`
	DepartementCode string   `json:"departement_code"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	IsVirtual       bool     `json:"is_virtual"`
	ValidationToken string   `json:"validation_token"`
	Offerer         *Offerer `json:"offerer"`
}

// IsValidated reports whether the venue has completed validation.
func (v *Venue) IsValidated() bool {
	return v.ValidationToken == ""
}

// HasCoordinates reports whether the venue carries a geolocation. Digital
// venues usually do not.
func (v *Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// Stock is one sellable line of an offer. RemainingQuantity is nil for
// unlimited stocks; the datastore computes it from quantity minus bookings.
type Stock struct {
	ID                   int64           `json:"id"`
	OfferID              int64           `json:"offer_id"`
	Price                decimal.Decimal `json:"price"`
	RemainingQuantity    *int64          `json:"remaining_quantity"`
	IsSoftDeleted        bool            `json:"is_soft_deleted"`
	BeginningDatetime    *time.Time      `json:"beginning_datetime"`
	BookingLimitDatetime *time.Time      `json:"booking_limit_datetime"`
	DateCreated          time.Time       `json:"date_created"`
}

// IsBookable reports whether the stock can still be booked at the given time.
// A stock is bookable when it is not soft-deleted, has remaining quantity (or
// is unlimited) and, if dated, has a booking limit or occurrence datetime in
// the future.
func (s *Stock) IsBookable(now time.Time) bool {
	if s.IsSoftDeleted {
		return false
	}
	if s.RemainingQuantity != nil && *s.RemainingQuantity <= 0 {
		return false
	}
	if s.BookingLimitDatetime != nil && !s.BookingLimitDatetime.After(now) {
		return false
	}
	if s.BeginningDatetime != nil && !s.BeginningDatetime.After(now) {
		return false
	}
	return true
}

// Criterion is a manual tag attached to an offer by the editorial team.
type Criterion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OfferExtra holds the free-form metadata attached to an offer depending on
// its category (books carry an ISBN, shows carry a show type, and so on).
type OfferExtra struct {
	Author        string `json:"author"`
	StageDirector string `json:"stage_director"`
	Visa          string `json:"visa"`
	ISBN          string `json:"isbn"`
	Speaker       string `json:"speaker"`
	Performer     string `json:"performer"`
	ShowType      string `json:"show_type"`
	ShowSubType   string `json:"show_sub_type"`
	MusicType     string `json:"music_type"`
	MusicSubType  string `json:"music_sub_type"`
}

// Offer is the aggregate consumed by the indexation pipeline: the offer row
// with its venue, offerer, stocks and criteria eagerly loaded.
type Offer struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	IsActive          bool        `json:"is_active"`
	IsDuo             bool        `json:"is_duo"`
	IsDigital         bool        `json:"is_digital"`
	IsEvent           bool        `json:"is_event"`
	Category          string      `json:"category"`
	Label             string      `json:"label"`
	Type              string      `json:"type"`
	RankingWeight     *int64      `json:"ranking_weight"`
	WithdrawalDetails string      `json:"withdrawal_details"`
	ThumbURL          string      `json:"thumb_url"`
	DateCreated       time.Time   `json:"date_created"`
	Extra             OfferExtra  `json:"extra"`
	Venue             *Venue      `json:"venue"`
	Stocks            []*Stock    `json:"stocks"`
	Criteria          []Criterion `json:"criteria"`
}

// IsThing reports whether the offer is a thing (as opposed to an event).
func (o *Offer) IsThing() bool {
	return !o.IsEvent
}

// BookableStocks returns the stocks that can still be booked at the given
// time, in their original order.
func (o *Offer) BookableStocks(now time.Time) []*Stock {
	var stocks []*Stock
	for _, stock := range o.Stocks {
		if stock.IsBookable(now) {
			stocks = append(stocks, stock)
		}
	}
	return stocks
}

// IsBookable reports whether the offer is currently eligible for display: the
// offer is active, its venue and offerer are validated, the offerer is active
// and at least one stock is bookable. This predicate drives the indexation
// pipeline's add/delete partition.
func (o *Offer) IsBookable(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.Venue == nil || !o.Venue.IsValidated() {
		return false
	}
	offerer := o.Venue.Offerer
	if offerer == nil || !offerer.IsActive || !offerer.IsValidated() {
		return false
	}
	return len(o.BookableStocks(now)) > 0
}
