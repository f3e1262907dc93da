// Package storage persists generated binary assets and hands back an opaque
// locator for each one. Locators are what content outputs record as their
// file path.
//
// Two backends are provided: FileStore on the local filesystem for
// development and tests, and GCSStore on Google Cloud Storage. New selects
// one from configuration.
package storage
