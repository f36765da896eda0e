// Package app wires the SalesPulse server together: configuration, logging,
// OpenTelemetry, the SQLite store, the ingest pipeline, services, the
// websocket hub and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration from .env, the environment and an optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Resolve paths and open the database
//	4. Build the pipeline, analytics engine and services
//	5. Mount handlers and middleware
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns once ctx is cancelled and shutdown has finished. It never
// calls os.Exit.
package app
