// Package config builds PostgreSQL connection handles for the lending repository
// and the OpenTelemetry providers that export its telemetry.
//
// The DSN comes from the LENDING_POSTGRES_DSN environment variable and falls back to a local
// development database. Pool tuning is fixed per handle type. Telemetry goes to the OTLP gRPC
// endpoint in LENDING_OTLP_ENDPOINT.
package config
