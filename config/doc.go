// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files. It covers transport ports, execution engine
// parameters (interpreter binary, timeout, dependency installation), artifact
// storage (base directory, retention), and session registry limits.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Artifact dir: %s\n", cfg.Artifacts.BaseDir)
package config
