// Package state provides PreferencesStore implementations for persistent
// stylesheet user preferences.
//
// Every store keys a preference set by (stylesheet, person, profile):
//
//	PreferencesKey.Identifier() -> "stylesheet/<id>/person/<id>/profile/<id>"
//
// MemoryStore keeps sets in a mutex guarded map and is intended for tests,
// examples and single process deployments. SQLStore persists each set as one
// row of the stylesheet_user_preferences table with the three catalogs
// encoded as a JSON payload; it speaks the SQLite and PostgreSQL dialects.
//
// Stores hand out detached copies. Create is idempotent per key so
// concurrent first access converges on one stored row; Save is last write
// wins and bumps the version counter of the row.
package state
