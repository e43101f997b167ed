// Package app wires one dashboard process together.
//
// Startup loads the configuration, initializes logging and telemetry,
// loads the CSV dataset eagerly and builds the services and router. A
// dataset that cannot be loaded aborts startup before anything listens.
//
//	application, err := app.New(ctx, config.VariantEnrollment)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run serves until the context is cancelled or SIGINT/SIGTERM arrives,
// then shuts the server and telemetry providers down.
package app
