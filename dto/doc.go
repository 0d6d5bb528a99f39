// Package dto holds the transfer representations exchanged with callers and
// the explicit mapping between them and the persisted entities.
package dto
