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
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/offerhub/searchsync"
	model2 "github.com/offerhub/searchsync/api/model"
	"github.com/offerhub/searchsync/internal/notification"
)

// ResyncProgress tracks one full reindexation from the database. A resync
// runs for as long as it takes to walk the offer table, so the endpoint is
// asynchronous and progress is polled by id.
type ResyncProgress struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type resyncManager struct {
	mu   sync.RWMutex
	jobs map[string]*ResyncProgress
}

var globalResyncManager = &resyncManager{jobs: map[string]*ResyncProgress{}}

func (m *resyncManager) running() *ResyncProgress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, job := range m.jobs {
		if job.Status == "in_progress" {
			return job
		}
	}
	return nil
}

func (m *resyncManager) start() *ResyncProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &ResyncProgress{
		ID:        uuid.New().String(),
		Status:    "in_progress",
		StartedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	return job
}

func (m *resyncManager) finish(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
		return
	}
	job.Status = "completed"
}

func (m *resyncManager) get(id string) (*ResyncProgress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

// StartResync triggers a full reindexation of all offers from the database.
// The resync runs asynchronously to avoid HTTP timeouts.
//
// Responses:
// - 202 Accepted: Resync started, returns the job to poll.
// - 409 Conflict: If a resync is already in progress.
func (a Api) StartResync(c *gin.Context) {
	var req model2.StartResync
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateStartResync(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if job := globalResyncManager.running(); job != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "A resync operation is already in progress",
			"progress": job,
		})
		return
	}

	job := globalResyncManager.start()
	go func() {
		err := a.searchsync.ProcessOffersFromDatabase(context.Background(), searchsync.ResyncOptions{
			ClearIndex:   req.ClearIndex,
			ClearShadow:  req.ClearShadow,
			StartingPage: req.StartingPage,
			EndingPage:   req.EndingPage,
			Limit:        req.Limit,
		})
		if err != nil {
			notification.NotifyError(err)
		}
		globalResyncManager.finish(job.ID, err)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Resync operation started",
		"progress": job,
	})
}

// GetResyncProgress returns the progress of a resync job.
//
// Responses:
// - 200 OK: Returns the job.
// - 404 Not Found: If no job with that id exists.
func (a Api) GetResyncProgress(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /search/resync/:id"})
		return
	}

	job, ok := globalResyncManager.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No resync operation with this id"})
		return
	}

	c.JSON(http.StatusOK, job)
}
