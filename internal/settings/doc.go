// Package settings manages confkeep's own configuration using Viper.
//
// Settings are read from ~/.config/confkeep/config.yaml (see
// [paths.SettingsFile]) and may be overridden by CONFKEEP_* environment
// variables:
//
//	check_level: "1111"
//	fetch_timeout: 30s
//	backup_retention: 5
//	log_format: text
//	log_file: ""
//
// A missing default file is not an error; the defaults above apply.
package settings
