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
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/offerhub/searchsync/api"
)

// serverCommands defines the "start" command that serves the admin API: the
// enqueue endpoints, the queue stats and the resync trigger.
func serverCommands(b *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start searchsync server",
		Run: func(cmd *cobra.Command, args []string) {
			service, err := api.NewAPI(b.searchsync)
			if err != nil {
				log.Fatalf("Failed to set up API: %v", err)
			}
			router := service.Router()

			server := &http.Server{
				Addr:              fmt.Sprintf(":%s", b.cnf.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			log.Printf("Starting server on %s", b.cnf.Server.Port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		},
	}

	return cmd
}
