// Package config loads SalesPulse configuration.
//
// Values come from three sources, highest precedence first:
//
//  1. Environment variables prefixed with SALES_ (a .env file in the working
//     directory is loaded into the environment first)
//  2. A YAML file: $SALES_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. Defaults declared in struct tags
//
// Examples:
//
//	SALES_SERVER_PORT=9000
//	SALES_INGEST_TXT_AREA=Thrissur
//	SALES_PATHS_DATABASE=/var/lib/salespulse/sales.db
//	SALES_TELEMETRY_TRACE_EXPORTER=stdout
//
// ResolvePaths turns the relative PathsConfig entries into absolute paths.
package config
