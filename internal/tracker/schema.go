package tracker

// createTableCQL is the DDL for the tracking table; %s is keyspace.table.
const createTableCQL = `CREATE TABLE IF NOT EXISTS %s (
    id         text PRIMARY KEY,
    filename   text,
    applied_at timestamp,
    checksum   text
)`
