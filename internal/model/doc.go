// Package model provides the entity and error types shared by every
// every-player package.
//
// This package contains type definitions only. The store, engine, seed and
// CLI packages import model; model imports nothing internal. This keeps the
// relational shape of the roster (divisions → leagues → seasons → teams →
// players, formations → positions, games → periods → assignments) in one
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Identifiers are opaque strings, never parsed
//   - Status values are closed string types; equality is value equality
//   - Optional references are *string, optional numbers are *int
//   - Timestamps are metadata only; ordering inside a period uses Seq
package model
