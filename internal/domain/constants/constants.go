// Package constants holds shared domain-level constant values.
package constants

// Pub/Sub provider names accepted in configuration.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// RoleUser is the default role granted to every account.
const RoleUser = "user"

// Environment names used in configuration.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)
