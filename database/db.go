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

package database

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/offerhub/searchsync/config"
	"github.com/offerhub/searchsync/model"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

// IDataSource is the read surface the indexation pipeline needs from the
// transactional database. Everything is read-only; the pipeline never
// writes back to the offer tables.
type IDataSource interface {
	GetOffersByIDs(ctx context.Context, offerIDs []int64) ([]*model.Offer, error)
	GetPaginatedOfferIDsByVenue(ctx context.Context, venueID int64, limit int, page int) ([]int64, error)
	GetPaginatedActiveOfferIDs(ctx context.Context, limit int, page int) ([]int64, error)
	GetExpiredOfferIDs(ctx context.Context, from time.Time, to time.Time, limit int, page int) ([]int64, error)
}

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// NewDataSourceFromDB wraps an existing connection. Used by tests.
func NewDataSourceFromDB(db *sql.DB) *Datasource {
	return &Datasource{Conn: db}
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}
