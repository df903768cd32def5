// Package services provides the centralized service registry for decisiond.
//
// Registry pattern for accessing the core services (dialogue engine, session
// store, reasoning provider). Use NewRegistry() to create a registry with
// service instances, then accessor methods to retrieve individual services.
package services
