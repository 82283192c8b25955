// Package config holds the per-service environment configuration. Each
// service parses exactly one struct at startup and fails fast; nothing
// reads the environment after that.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Parse loads configuration from environment variables into target.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

type Procurement struct {
	Port         string   `env:"PORT" envDefault:"8081"`
	PostgresURL  string   `env:"POSTGRES_URL,required"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic  string   `env:"EVENTS_TOPIC" envDefault:"procurement.events"`
}

type Warehouse struct {
	Port         string   `env:"PORT" envDefault:"8082"`
	PostgresURL  string   `env:"POSTGRES_URL,required"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic  string   `env:"EVENTS_TOPIC" envDefault:"procurement.events"`
	ReceivedBy   string   `env:"RECEIVED_BY" envDefault:"warehouse"`
}

type Logistics struct {
	Port             string   `env:"PORT" envDefault:"8083"`
	PostgresURL      string   `env:"POSTGRES_URL,required"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic      string   `env:"EVENTS_TOPIC" envDefault:"procurement.events"`
	BranchCandidates []string `env:"BRANCH_CANDIDATES" envSeparator:"," envDefault:"S1,S2,S3,S4,S5"`
}

type Router struct {
	PostgresURL   string   `env:"POSTGRES_URL,required"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS,required" envSeparator:","`
	EventsTopic   string   `env:"EVENTS_TOPIC" envDefault:"procurement.events"`
	GroupID       string   `env:"CONSUMER_GROUP" envDefault:"approval-router"`
	CreatorRole   string   `env:"CREATOR_ROLE" envDefault:"head-office"`
	AudienceRoles []string `env:"AUDIENCE_ROLES" envSeparator:"," envDefault:"PURCHASE_APPROVERS"`
}

type Notifier struct {
	PostgresURL  string            `env:"POSTGRES_URL,required"`
	KafkaBrokers []string          `env:"KAFKA_BROKERS,required" envSeparator:","`
	EventsTopic  string            `env:"EVENTS_TOPIC" envDefault:"procurement.events"`
	GroupID      string            `env:"CONSUMER_GROUP" envDefault:"notifier"`
	RoleWebhooks map[string]string `env:"ROLE_WEBHOOKS"`
	APIBaseURL   string            `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	AppName      string            `env:"APP_NAME" envDefault:"procureflow"`
}

type Gateway struct {
	Port           string `env:"PORT" envDefault:"8080"`
	ProcurementURL string `env:"PROCUREMENT_SERVICE_URL,required"`
	WarehouseURL   string `env:"WAREHOUSE_SERVICE_URL,required"`
	LogisticsURL   string `env:"LOGISTICS_SERVICE_URL,required"`
}

type Sink struct {
	Port string `env:"PORT" envDefault:"8090"`
}
