// Package service implements the story operations on top of the
// repositories. Every operation runs in one transaction, resolves the
// referenced epic, sprint, project and users by id, and exchanges DTOs with
// the caller.
package service
