// Package groups maintains live entity groups.
//
// A Token names the component types an entity must carry inside a scope. An
// Accessor caches the entities of that scope matching its token and keeps the
// cache current by listening to the scope's lifecycle events:
//
//	EntityAdded       insert if the entity matches
//	EntityRemoved     remove unconditionally
//	ComponentAdded    insert if the entity now matches
//	ComponentRemoved  remove if the entity no longer matches
//
// The Registry deduplicates accessors so that a given token has exactly one
// cache and one set of subscriptions for the lifetime of the registry.
package groups
