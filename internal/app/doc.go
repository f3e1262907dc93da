// Package app assembles the application's dependencies from configuration.
// The server and worker binaries share it so both see the same stores,
// queue and provider chain.
package app
