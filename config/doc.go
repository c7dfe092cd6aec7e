// Package config loads the runtime configuration of opswatch.
//
// A Config is built once at startup from three layers, later layers winning:
//
//  1. Default()
//  2. an optional YAML file, after ${VAR} expansion (see ExpandEnvStrict)
//  3. environment overrides: PRIMARY_REGION, DR_REGION, TABLE_NAME,
//     NOTIFY_TOPIC (falling back to SNS_TOPIC_ARN) and API_ENDPOINT
//
// Values that carry credentials (store DSNs and the notify topic) may be
// secret references of the form secretref:env:NAME or secretref:file:/path,
// resolved after the overrides are applied.
package config
