// Package catalog manages students, books and book copies.
//
// Deletions are guarded and report a lending.DeletionResult instead of an error when a guard refuses:
//   - a student with any loan, open or returned, cannot be deleted
//   - a book with a borrowed copy cannot be deleted, otherwise its copies are deleted with it,
//     regardless of their loan history
//   - a book copy that is borrowed or has any loan history cannot be deleted on its own
//
// The last two rules are deliberately asymmetric.
package catalog
