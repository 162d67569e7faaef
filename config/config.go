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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5080"

	BackendTypesense = "typesense"
	BackendAppSearch = "appsearch"
	BackendMemory    = "memory"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Port      string `json:"port" envconfig:"SEARCHSYNC_SERVER_PORT"`
	Secure    bool   `json:"secure" envconfig:"SEARCHSYNC_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"SEARCHSYNC_SERVER_SECRET_KEY"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"SEARCHSYNC_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"SEARCHSYNC_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"SEARCHSYNC_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"SEARCHSYNC_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"SEARCHSYNC_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"SEARCHSYNC_REDIS_SKIP_TLS_VERIFY"`
}

type TypeSenseConfig struct {
	Dns    string `json:"dns" envconfig:"SEARCHSYNC_TYPESENSE_DNS"`
	ApiKey string `json:"api_key" envconfig:"SEARCHSYNC_TYPESENSE_API_KEY"`
}

type AppSearchConfig struct {
	Host   string `json:"host" envconfig:"SEARCHSYNC_APPSEARCH_HOST"`
	ApiKey string `json:"api_key" envconfig:"SEARCHSYNC_APPSEARCH_API_KEY"`
	Engine string `json:"engine" envconfig:"SEARCHSYNC_APPSEARCH_ENGINE"`
}

type SlackNotificationConfig struct {
	WebhookUrl string `json:"webhook_url" envconfig:"SEARCHSYNC_SLACK_WEBHOOK_URL"`
}

type NotificationConfig struct {
	Slack SlackNotificationConfig `json:"slack"`
}

// SearchConfig drives the indexation pipeline: which backend is active and
// how large the batches popped from the queues are.
type SearchConfig struct {
	Backend                 string `json:"backend" envconfig:"SEARCHSYNC_SEARCH_BACKEND"`
	OfferIDsChunkSize       int64  `json:"offer_ids_chunk_size" envconfig:"SEARCHSYNC_OFFER_IDS_CHUNK_SIZE"`
	VenueIDsChunkSize       int64  `json:"venue_ids_chunk_size" envconfig:"SEARCHSYNC_VENUE_IDS_CHUNK_SIZE"`
	OffersByVenueChunkSize  int    `json:"offers_by_venue_chunk_size" envconfig:"SEARCHSYNC_OFFERS_BY_VENUE_CHUNK_SIZE"`
	DeletingOffersChunkSize int    `json:"deleting_offers_chunk_size" envconfig:"SEARCHSYNC_DELETING_OFFERS_CHUNK_SIZE"`
	DatabasePageSize        int    `json:"database_page_size" envconfig:"SEARCHSYNC_DATABASE_PAGE_SIZE"`
}

type Configuration struct {
	ProjectName  string             `json:"project_name" envconfig:"SEARCHSYNC_PROJECT_NAME"`
	Server       ServerConfig       `json:"server"`
	DataSource   DataSourceConfig   `json:"data_source"`
	Redis        RedisConfig        `json:"redis"`
	TypeSense    TypeSenseConfig    `json:"typesense"`
	AppSearch    AppSearchConfig    `json:"appsearch"`
	Search       SearchConfig       `json:"search"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`
	Notification NotificationConfig `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("searchsync", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called searchsync.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Searchsync"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	switch cnf.Search.Backend {
	case "":
		cnf.Search.Backend = BackendTypesense
	case BackendTypesense, BackendAppSearch, BackendMemory:
	default:
		return errors.New("unknown search backend: " + cnf.Search.Backend)
	}

	if cnf.Search.Backend == BackendTypesense && cnf.TypeSense.Dns == "" {
		cnf.TypeSense.Dns = "http://typesense:8108"
	}

	if cnf.Search.OfferIDsChunkSize <= 0 {
		cnf.Search.OfferIDsChunkSize = 1000
	}
	if cnf.Search.VenueIDsChunkSize <= 0 {
		cnf.Search.VenueIDsChunkSize = 100
	}
	if cnf.Search.OffersByVenueChunkSize <= 0 {
		cnf.Search.OffersByVenueChunkSize = 1000
	}
	if cnf.Search.DeletingOffersChunkSize <= 0 {
		cnf.Search.DeletingOffersChunkSize = 1000
	}
	if cnf.Search.DatabasePageSize <= 0 {
		cnf.Search.DatabasePageSize = 10000
	}

	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst != nil && cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 180
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if err := mockConfig.validateAndAddDefaults(); err != nil {
		log.Printf("Warning: mock config validation failed: %v", err)
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
