// Package config loads configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env file) and
// github.com/caarlos0/env/v11 (struct tag parsing).
//
// Two entry points exist:
//
//   - Load parses a struct once per type and caches the copy for the process
//     lifetime. Use it for process-wide settings.
//   - LoadWithPrefix parses without caching and with a variable prefix, so
//     several kits can be configured from one environment.
//
// # Usage
//
//	type Config struct {
//	    APIURL string `env:"SESSION_API_URL" envDefault:"http://localhost:3333"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	var tab2 Config
//	_ = config.LoadWithPrefix(&tab2, "TAB2_") // reads TAB2_SESSION_API_URL
//
// # Error Handling
//
// ErrParsingConfig is joined with the underlying env error, ErrNilPointer is
// returned for nil targets. Compare with errors.Is.
package config
