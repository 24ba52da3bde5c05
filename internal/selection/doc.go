// Package selection tracks the gallery's edit-mode selection set and
// drives the two-tier batch delete contract.
//
// The two tiers are a data-safety contract, not a UI nicety:
// database-only deletes keep the underlying asset recoverable at the
// storage layer, database-and-storage is irreversible. The tier has no
// default and must be chosen explicitly for every delete.
package selection
