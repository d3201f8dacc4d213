// Package cache stores last-value quotes in Redis so other services
// can read current prices without talking to the feed themselves.
package cache
