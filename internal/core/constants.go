package core

import "time"

// File and directory names
const (
	// ConfigFile is the engine configuration filename
	ConfigFile = "connected-lint.yml"
	// StorageDir is the default storage root, relative to the user home
	StorageDir = ".connected-lint/storage"
	// GlobalRecordFile holds the global snapshot record
	GlobalRecordFile = "global.json"
	// ModulesDir contains one record per module key
	ModulesDir = "modules"
)

// Storage record schema
const (
	// CurrentSchemaVersion is the version written to new records
	CurrentSchemaVersion = 1
)

// Setting keys with special meaning to the engine.
const (
	SettingInclusions     = "sonar.inclusions"
	SettingExclusions     = "sonar.exclusions"
	SettingTestInclusions = "sonar.test.inclusions"
	SettingTestExclusions = "sonar.test.exclusions"
)

// Defaults
const (
	// DefaultSyncTimeout bounds a full sync when the configuration does not set one
	DefaultSyncTimeout = 5 * time.Minute
	// DefaultServerID names the storage directory when no server id is configured
	DefaultServerID = "default"
)

// Changelog entries produced by staleness checks.
const (
	ChangelogGlobalSettings  = "Global settings updated"
	ChangelogProjectSettings = "Project settings updated"
	changelogProfileFmt      = "Quality profile '%s' for language '%s' updated"
)
