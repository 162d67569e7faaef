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
	"github.com/gin-gonic/gin"

	"github.com/offerhub/searchsync"
	"github.com/offerhub/searchsync/api/middleware"
	"github.com/offerhub/searchsync/config"
)

type Api struct {
	searchsync *searchsync.Searchsync
	router     *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/search/offers", a.EnqueueOffers)
	router.POST("/search/venues", a.EnqueueVenues)
	router.GET("/search/queues", a.GetQueueStats)
	router.POST("/search/queues/errors/drain", a.DrainErrorQueue)

	router.POST("/search/resync", a.StartResync)
	router.GET("/search/resync/:id", a.GetResyncProgress)
	return a.router
}

func NewAPI(s *searchsync.Searchsync) (*Api, error) {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{searchsync: s, router: r}, nil
}
