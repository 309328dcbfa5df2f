// Package app wires the soundscape survey service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Build the logger from the logging config (or take an injected one)
//  2. Resolve and create the working directories
//  3. Initialize OpenTelemetry tracing, metrics and the pipeline instruments
//  4. Open the dataset store selected by the storage driver
//  5. Build the dataset and health services
//  6. Mount middleware, handlers and the /metrics endpoint on a chi router
//
// # Usage
//
//	application, err := app.NewApplication(ctx, cfg, nil)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or context cancellation. In-flight
// requests get the configured shutdown timeout, then the dataset store is
// closed and telemetry is flushed. The package never calls os.Exit.
package app
