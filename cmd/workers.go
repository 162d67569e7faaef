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

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/internal/notification"
	redis_db "github.com/offerhub/searchsync/internal/redis-db"
)

const (
	searchQueue = "search"

	taskIndexOffers          = "search:index_offers"
	taskIndexVenues          = "search:index_venues"
	taskIndexOffersInError   = "search:index_offers_in_error"
	taskUnindexExpiredOffers = "search:unindex_expired_offers"
)

// processIndexOffers drains one round of the pending offer queue. The cron
// stop condition keeps one run from monopolizing the worker when producers
// enqueue faster than the index absorbs.
func (b *appInstance) processIndexOffers(ctx context.Context, _ *asynq.Task) error {
	b.searchsync.IndexOffersInQueue(ctx, false)
	return nil
}

func (b *appInstance) processIndexVenues(ctx context.Context, _ *asynq.Task) error {
	b.searchsync.IndexVenuesInQueue(ctx)
	return nil
}

// processIndexOffersInError drains the error queue. This task is never
// scheduled; it only runs when an operator enqueues it explicitly.
func (b *appInstance) processIndexOffersInError(ctx context.Context, _ *asynq.Task) error {
	b.searchsync.IndexOffersInErrorQueue(ctx, true)
	return nil
}

func (b *appInstance) processUnindexExpiredOffers(ctx context.Context, _ *asynq.Task) error {
	if err := b.searchsync.UnindexExpiredOffers(ctx, time.Now().UTC(), false); err != nil {
		notification.NotifyError(err)
		return err
	}
	return nil
}

func redisClientOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("error parsing Redis URL: %v", err)
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	opt, err := redisClientOpt(conf)
	if err != nil {
		return nil, err
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{searchQueue: 1},
		},
	), nil
}

func initializeTaskHandlers(b *appInstance, mux *asynq.ServeMux) {
	mux.HandleFunc(taskIndexOffers, b.processIndexOffers)
	mux.HandleFunc(taskIndexVenues, b.processIndexVenues)
	mux.HandleFunc(taskIndexOffersInError, b.processIndexOffersInError)
	mux.HandleFunc(taskUnindexExpiredOffers, b.processUnindexExpiredOffers)
}

// initializeScheduler registers the periodic drains. The error queue is
// deliberately absent from the schedule.
func initializeScheduler(conf *config.Configuration) (*asynq.Scheduler, error) {
	opt, err := redisClientOpt(conf)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	entries := []struct {
		spec string
		task string
	}{
		{"* * * * *", taskIndexOffers},
		{"* * * * *", taskIndexVenues},
		{"10 1 * * *", taskUnindexExpiredOffers},
	}
	for _, entry := range entries {
		if _, err := scheduler.Register(entry.spec, asynq.NewTask(entry.task, nil), asynq.Queue(searchQueue)); err != nil {
			return nil, fmt.Errorf("error registering %s: %v", entry.task, err)
		}
	}
	return scheduler, nil
}

// workerCommands defines the "workers" command that runs the queue drains on
// a schedule.
func workerCommands(b *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start searchsync workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			srv, err := initializeWorkerServer(conf)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(b, mux)

			scheduler, err := initializeScheduler(conf)
			if err != nil {
				log.Fatal(err)
			}

			go func() {
				if err := scheduler.Run(); err != nil {
					logrus.Fatalf("could not run scheduler: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
