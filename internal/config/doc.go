// Package config provides centralized configuration management for the
// dashboards.
//
// # Configuration Sources
//
// Configuration is assembled in this order, later sources overriding earlier:
//
//  1. Default() values
//  2. A YAML file (config.yaml, configs/config.yaml or CUNYDASH_CONFIG_FILE)
//  3. Environment variables, including those loaded from a .env file
//
// Dashboard.Variant is the exception: it comes from the binary and no file or
// variable can change it.
//
// # Environment Variables
//
// All environment variables follow the pattern CUNYDASH_<SECTION>_<FIELD>:
//
//	CUNYDASH_SERVER_PORT=8050
//	CUNYDASH_DATA_DIR=/srv/cuny
//	CUNYDASH_DATA_ENROLLMENT_FILE=cuny_attendance.csv
//	CUNYDASH_DASHBOARD_MAP_EMBED_URL=https://example.org/map.html
//	CUNYDASH_LOGGING_LEVEL=debug
//
// # Data Paths
//
// Relative CSV file names are resolved against Data.Dir when it is set, and
// against the working directory otherwise.
package config
