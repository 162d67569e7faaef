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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerhub/searchsync"
	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/internal/search"
	"github.com/offerhub/searchsync/model"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	if s.Response != nil {
		err := json.NewDecoder(resp.Body).Decode(&s.Response)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

type stubDatasource struct {
	offers map[int64]*model.Offer
}

func (f *stubDatasource) GetOffersByIDs(_ context.Context, offerIDs []int64) ([]*model.Offer, error) {
	var offers []*model.Offer
	for _, id := range offerIDs {
		if offer, ok := f.offers[id]; ok {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

func (f *stubDatasource) GetPaginatedOfferIDsByVenue(_ context.Context, _ int64, _ int, _ int) ([]int64, error) {
	return nil, nil
}

func (f *stubDatasource) GetPaginatedActiveOfferIDs(_ context.Context, _ int, page int) ([]int64, error) {
	if page > 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(f.offers))
	for id := range f.offers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *stubDatasource) GetExpiredOfferIDs(_ context.Context, _ time.Time, _ time.Time, _ int, _ int) ([]int64, error) {
	return nil, nil
}

func indexableOffer(id int64) *model.Offer {
	remaining := int64(5)
	return &model.Offer{
		ID:       id,
		Name:     "Some book",
		IsActive: true,
		Venue: &model.Venue{
			ID:      1,
			Name:    "La librairie",
			Offerer: &model.Offerer{ID: 1, Name: "SAS Livres", IsActive: true},
		},
		Stocks: []*model.Stock{
			{ID: id * 10, OfferID: id, Price: decimal.NewFromInt(10), RemainingQuantity: &remaining, DateCreated: time.Now()},
		},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *searchsync.Searchsync) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	config.MockConfig(&config.Configuration{
		Redis:      config.RedisConfig{Dns: mr.Addr()},
		DataSource: config.DataSourceConfig{Dns: "postgres://test"},
		Search:     config.SearchConfig{Backend: config.BackendMemory},
	})

	ds := &stubDatasource{offers: map[int64]*model.Offer{
		1: indexableOffer(1),
		2: indexableOffer(2),
	}}
	backend := search.NewTypesenseBackend(client, search.NewMemoryIndex())
	s := searchsync.NewSearchsyncWithDeps(backend, client, ds, search.Options{})
	service, err := NewAPI(s)
	require.NoError(t, err)
	return service.Router(), s
}

func TestEnqueueOffers(t *testing.T) {
	router, s := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{"offer_ids": []int64{1, 2}})
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/search/offers",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.Equal(t, float64(2), response["queued"])
	assert.Equal(t, int64(2), s.CountOffersToIndex(context.Background()))
}

func TestEnqueueOffers_EmptyBody(t *testing.T) {
	router, _ := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{"offer_ids": []int64{}})
	require.NoError(t, err)

	resp, err := SetUpTestRequest(TestRequest{
		Payload: bytes.NewBuffer(payload),
		Router:  router,
		Method:  http.MethodPost,
		Route:   "/search/offers",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetQueueStats(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	s.AsyncIndexOfferIDs(ctx, []int64{1, 2, 3})

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &response,
		Method:   http.MethodGet,
		Route:    "/search/queues",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(3), response["offers_to_index"])
	assert.Equal(t, float64(0), response["offers_in_error"])
}

func TestDrainErrorQueue(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/search/queues/errors/drain",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Code)
}

func TestStartResyncAndPoll(t *testing.T) {
	router, _ := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{"clear_index": false})
	require.NoError(t, err)

	var response struct {
		Message  string         `json:"message"`
		Progress ResyncProgress `json:"progress"`
	}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/search/resync",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.NotEmpty(t, response.Progress.ID)

	// The fake datasource is tiny, the job finishes almost immediately.
	assert.Eventually(t, func() bool {
		var job ResyncProgress
		pollResp, err := SetUpTestRequest(TestRequest{
			Router:   router,
			Response: &job,
			Method:   http.MethodGet,
			Route:    "/search/resync/" + response.Progress.ID,
		})
		if err != nil || pollResp.Code != http.StatusOK {
			return false
		}
		return job.Status == "completed"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGetResyncProgress_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	resp, err := SetUpTestRequest(TestRequest{
		Router: router,
		Method: http.MethodGet,
		Route:  "/search/resync/unknown-id",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSecretKeyAuth(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	config.MockConfig(&config.Configuration{
		Server:     config.ServerConfig{Secure: true, SecretKey: "test-key"},
		Redis:      config.RedisConfig{Dns: mr.Addr()},
		DataSource: config.DataSourceConfig{Dns: "postgres://test"},
		Search:     config.SearchConfig{Backend: config.BackendMemory},
	})

	ds := &stubDatasource{offers: map[int64]*model.Offer{}}
	backend := search.NewTypesenseBackend(client, search.NewMemoryIndex())
	service, err := NewAPI(searchsync.NewSearchsyncWithDeps(backend, client, ds, search.Options{}))
	require.NoError(t, err)
	router := service.Router()

	resp, err := SetUpTestRequest(TestRequest{
		Router: router,
		Method: http.MethodGet,
		Route:  "/search/queues",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]interface{}
	resp, err = SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &response,
		Method:   http.MethodGet,
		Route:    "/search/queues",
		Header:   map[string]string{"X-Searchsync-Key": "test-key"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
}
