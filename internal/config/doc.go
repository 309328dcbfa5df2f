// Package config loads the application configuration.
//
// Values are layered: Default() first, then an optional YAML file, then
// environment variables prefixed with SSPY. The file is taken from
// SSPY_CONFIG_FILE or the first of config.yaml, configs/config.yaml and
// ../configs/config.yaml that exists.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
//
// Environment keys follow the YAML structure, e.g. SSPY_SERVER_PORT,
// SSPY_STORAGE_DRIVER or SSPY_VALIDATION_PAQ_ALIASES=pleasant:pl,calm:ca.
package config
