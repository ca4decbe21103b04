// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the optional SQL document database and creates its schema.

The league persists flat JSON documents. By default they live as files
under DATA_DIR; STORE_TYPE=sqlite or STORE_TYPE=postgres keeps the same
documents as rows of a single table instead.

# Opening

	conn, err := db.Open(db.TypeSQLite, "file:courtside.db")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Drivers: modernc.org/sqlite ("sqlite") and github.com/lib/pq ("postgres").

# Schema

	document (
	    name TEXT PRIMARY KEY,   -- e.g. "standings", "rosters/boston-celtics"
	    body TEXT NOT NULL,      -- the whole JSON document
	    updated_at TIMESTAMP
	)

There are no relational tables; every read-modify-write rewrites one row.
*/
package db
