// Package config provides configuration management for dirsync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP server settings (port, API key, mode)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Database: SQL source connection details
//   - Directory: LDAP destination connection and search settings
//   - Sync: task file location, task cache and audit settings
//
// Environment keys are the section and field joined by an underscore, for
// example DIRECTORY_BASE_DN or SYNC_TASK_DIR.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Directory.URL)
package config
