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
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EnqueueOffers is the request body for queuing offers for reindexation.
type EnqueueOffers struct {
	OfferIDs []int64 `json:"offer_ids"`
}

func (e *EnqueueOffers) ValidateEnqueueOffers() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.OfferIDs, validation.Required, validation.Length(1, 10000)),
		validation.Field(&e.OfferIDs, validation.Each(validation.Min(1))),
	)
}

// EnqueueVenues is the request body for queuing venues for fan-out.
type EnqueueVenues struct {
	VenueIDs []int64 `json:"venue_ids"`
}

func (e *EnqueueVenues) ValidateEnqueueVenues() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.VenueIDs, validation.Required, validation.Length(1, 10000)),
		validation.Field(&e.VenueIDs, validation.Each(validation.Min(1))),
	)
}

// StartResync is the request body for a full reindexation from the database.
type StartResync struct {
	ClearIndex   bool `json:"clear_index"`
	ClearShadow  bool `json:"clear_shadow"`
	StartingPage int  `json:"starting_page"`
	EndingPage   int  `json:"ending_page"`
	Limit        int  `json:"limit"`
}

func (r *StartResync) ValidateStartResync() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.StartingPage, validation.Min(0)),
		validation.Field(&r.EndingPage, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100000)),
	)
}
