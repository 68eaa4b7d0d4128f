// Package core contains the provider-connection domain contracts, entities,
// and orchestration logic. Lower-level adapters must depend on this package;
// core must not depend on provider-specific or storage-specific adapters.
package core
