// Package redis provides the per-job processing lock used by workers to
// avoid running the same job twice after a redelivery.
package redis
