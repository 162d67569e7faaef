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

// Package appsearch is a minimal client for the Elastic App Search documents
// API. It deliberately does no retrying: the indexation pipeline's error
// queue owns retries, and stacking transport retries underneath it would
// only hide quota problems.
package appsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client talks to one App Search engine.
type Client struct {
	host   string
	apiKey string
	engine string
	http   *http.Client
}

// NewClient builds a client for the given host, private API key and engine.
func NewClient(host, apiKey, engine string) *Client {
	return &Client{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		engine: engine,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) documentsURL() string {
	return fmt.Sprintf("%s/api/as/v1/engines/%s/documents", c.host, c.engine)
}

// documentResponse is one entry of the bulk index response; Errors carries
// per-document rejections (schema conflicts, size limits).
type documentResponse struct {
	ID     json.RawMessage `json:"id"`
	Errors []string        `json:"errors"`
}

// IndexDocuments submits documents in one bulk call. Any per-document
// rejection fails the whole batch so the caller can queue it for retry.
func (c *Client) IndexDocuments(ctx context.Context, documents interface{}) error {
	var responses []documentResponse
	if err := c.call(ctx, http.MethodPost, documents, &responses); err != nil {
		return err
	}
	for _, response := range responses {
		if len(response.Errors) > 0 {
			return errors.Errorf("appsearch rejected document %s: %s", response.ID, strings.Join(response.Errors, "; "))
		}
	}
	return nil
}

// DeleteDocuments removes documents by id in one bulk call. Ids unknown to
// the engine are reported as deleted:false and ignored.
func (c *Client) DeleteDocuments(ctx context.Context, ids []int64) error {
	return c.call(ctx, http.MethodDelete, ids, nil)
}

// RecreateEngine drops and recreates the engine, emptying the index.
func (c *Client) RecreateEngine(ctx context.Context) error {
	deleteURL := fmt.Sprintf("%s/api/as/v1/engines/%s", c.host, c.engine)
	if err := c.do(ctx, http.MethodDelete, deleteURL, nil, nil, http.StatusNotFound); err != nil {
		return err
	}
	createURL := fmt.Sprintf("%s/api/as/v1/engines", c.host)
	body := map[string]string{"name": c.engine}
	return c.do(ctx, http.MethodPost, createURL, body, nil)
}

func (c *Client) call(ctx context.Context, method string, payload, response interface{}) error {
	return c.do(ctx, method, c.documentsURL(), payload, response)
}

func (c *Client) do(ctx context.Context, method, url string, payload, response interface{}, acceptableStatuses ...int) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encode appsearch payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(err, "build appsearch request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "appsearch %s %s", method, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		for _, status := range acceptableStatuses {
			if resp.StatusCode == status {
				return nil
			}
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return errors.Errorf("appsearch %s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return errors.Wrap(err, "decode appsearch response")
		}
	}
	return nil
}
