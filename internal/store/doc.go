// Package store provides SQLite-backed persistence for rosters, formations,
// games and lineup assignments.
//
// All reads and writes run inside a transaction handed out by View or
// Update. A Tx exposes row-level CRUD for every table; it does not enforce
// business rules beyond what the schema declares. The engine package is
// responsible for validating a write before it reaches the store.
//
// # Ordering
//
// Assignment rows are ordered by seq ASC, id ASC COLLATE BINARY. Seq is a
// logical counter stamped by the engine, never a timestamp.
//
// # Constraint errors
//
// SQLite constraint failures are translated into the model error taxonomy:
//   - FOREIGN KEY → model.ReferentialIntegrityError
//   - UNIQUE / PRIMARY KEY → model.ConflictError
//
// # Cascades
//
// Foreign keys stay enforced and carry no ON DELETE action. Delete* methods
// walk the ownership tree children-first inside the caller's transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: every unit of work is a single BEGIN … COMMIT
package store
