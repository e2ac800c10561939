// Package redis connects the go-redis client used by the redis token store.
//
// Connect validates REDIS_URL (redis:// or rediss://), then pings the server
// under the shared retry policy (REDIS_RETRY_ATTEMPTS attempts starting at
// REDIS_RETRY_INTERVAL). Healthcheck plugs into the readiness endpoint.
package redis
