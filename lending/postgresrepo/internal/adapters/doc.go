// Package adapters provides database adapter implementations for the PostgreSQL repository.
//
// This package contains internal implementation details and should not be imported
// directly by external code. Use the factory functions in the postgresrepo package instead.
//
// Every adapter opens transactions with the requested isolation level and access mode;
// all queries of the repository run inside such a transaction.
package adapters
