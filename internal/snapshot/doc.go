// Package snapshot stores captured provider instances in SQLite and answers
// WQL queries from them offline.
//
// A snapshot is a named, point-in-time copy of one or more classes:
//   - snapshots: one row per capture (ID, name, host, namespace, time)
//   - classes: declared property names per class, in provider order
//   - instances: one row per instance, ordered by seq within its class
//   - properties: one row per property value, stored as canonical JSON
//
// # Deterministic Results
//
// Every instance query orders by seq ASC, id ASC, so a snapshot replays its
// instances in the order they were captured or imported.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Provider adapts a stored snapshot to wbem.Services, so the same client
// code runs against a live WMI service or a snapshot.
package snapshot
