// Package memoryrepo provides an in-memory implementation of lending.Repository.
//
// Transactions are serialized through a store-wide lock. Each transaction works on a
// deep copy of the committed state, which replaces the committed state only when the
// transaction body returns nil. A failing or panicking body therefore leaves no trace.
//
// The state can be exported to and imported from JSON snapshots, which the CLI and
// the tests use to seed fixtures.
//
// Example:
//
//	repo, err := memoryrepo.NewRepository(memoryrepo.WithLogger(slog.Default()))
//	if err != nil {
//		return err
//	}
//	engine, err := circulation.NewEngine(repo)
package memoryrepo
