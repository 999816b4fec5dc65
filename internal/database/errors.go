package database

import "errors"

// ErrInvalidDatabaseURL indicates the provided database URL could not be parsed.
var ErrInvalidDatabaseURL = errors.New("invalid database URL")

// ErrConnectionFailed indicates a session to the cluster could not be established.
var ErrConnectionFailed = errors.New("database connection failed")

// ErrLockNotAcquired indicates the migration lease is held by another runner.
var ErrLockNotAcquired = errors.New("migration lock not acquired")

// ErrInvalidIdentifier indicates a keyspace or table name unsafe to interpolate into CQL.
var ErrInvalidIdentifier = errors.New("invalid CQL identifier")

// ErrNoHosts indicates no contact points were configured.
var ErrNoHosts = errors.New("no cluster hosts configured")
