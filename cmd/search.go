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
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/offerhub/searchsync"
)

// searchCommands groups the one-shot pipeline commands. They run the same
// drains as the workers, but synchronously from the shell.
func searchCommands(b *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "run indexation pipeline operations",
	}

	cmd.AddCommand(processOffersCommand(b))
	cmd.AddCommand(processVenuesCommand(b))
	cmd.AddCommand(processOffersInErrorCommand(b))
	cmd.AddCommand(processOffersFromDatabaseCommand(b))
	cmd.AddCommand(processExpiredOffersCommand(b))

	return cmd
}

func processOffersCommand(b *appInstance) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "process-offers",
		Short: "drain the pending offer queue",
		Run: func(cmd *cobra.Command, args []string) {
			b.searchsync.IndexOffersInQueue(context.Background(), all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "keep draining until the queue is empty")
	return cmd
}

func processVenuesCommand(b *appInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "process-venues",
		Short: "fan queued venues out to their offers and reindex them",
		Run: func(cmd *cobra.Command, args []string) {
			b.searchsync.IndexVenuesInQueue(context.Background())
		},
	}
}

func processOffersInErrorCommand(b *appInstance) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "process-offers-in-error",
		Short: "retry the offers parked in the error queue",
		Run: func(cmd *cobra.Command, args []string) {
			b.searchsync.IndexOffersInErrorQueue(context.Background(), all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "keep draining until the queue is empty")
	return cmd
}

func processOffersFromDatabaseCommand(b *appInstance) *cobra.Command {
	var opts searchsync.ResyncOptions
	cmd := &cobra.Command{
		Use:   "process-offers-from-database",
		Short: "reindex every active offer straight from the database",
		Run: func(cmd *cobra.Command, args []string) {
			if err := b.searchsync.ProcessOffersFromDatabase(context.Background(), opts); err != nil {
				log.Fatalf("resync failed: %v", err)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.ClearIndex, "clear-index", false, "drop every document from the index first")
	cmd.Flags().BoolVar(&opts.ClearShadow, "clear-shadow", false, "reset the set of offers known to be indexed")
	cmd.Flags().IntVar(&opts.StartingPage, "starting-page", 0, "first page of active offers to process")
	cmd.Flags().IntVar(&opts.EndingPage, "ending-page", 0, "stop before this page (0 means no limit)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "override the configured database page size")
	return cmd
}

func processExpiredOffersCommand(b *appInstance) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "process-expired-offers",
		Short: "unindex offers whose last booking limit has passed",
		Run: func(cmd *cobra.Command, args []string) {
			if err := b.searchsync.UnindexExpiredOffers(context.Background(), time.Now().UTC(), all); err != nil {
				log.Fatalf("unindexing expired offers failed: %v", err)
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sweep every expired offer since 2000 instead of the trailing window")
	return cmd
}
