// Package repository provides generic bun repositories bound to a
// connection or transaction, the story finders and search, and the
// Transactor that scopes a unit of work to one transaction.
package repository
