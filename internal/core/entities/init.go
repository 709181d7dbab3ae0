// Package entities registers the DIMA survey methods with the core registry.
// Import this package to ensure all entity types are registered.
package entities

// Each file uses init() to register its entity types.
