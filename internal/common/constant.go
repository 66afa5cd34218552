package common

import "time"

// DefaultTokenValidity is the lifetime of an issued bearer token: 7 days.
const DefaultTokenValidity = 7 * 24 * time.Hour

// EnvPrefix prefixes every environment variable read by the config layer.
const EnvPrefix = "CREDKEEPER_"
