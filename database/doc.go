// Package database provides connection management, pooling, health checks,
// tracked migrations, foreign key handling, query hooks, SQL error
// classification and the database logger, built on top of Bun.
package database
