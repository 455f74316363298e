// Package observability builds the application's structured logging from
// configuration. Request IDs are attached per request by the HTTP middleware;
// services receive the logger through dependency injection.
package observability
