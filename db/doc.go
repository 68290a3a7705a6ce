// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is portable between sqlite and postgres.

# Tables

The schema includes:

  - topic: Vote topics (seeded, promoted, or admin-created)
  - proposal: Citizen-submitted topic candidates with lifecycle status
  - tally_record: One row per (scope, user) - votes and supports
  - signature: Petition signatures with globally unique phone

# Relationships

	proposal 1──1 topic (on promotion; the topic reuses the proposal id)
	topic 1──* tally_record (scope_kind = 'votes')
	proposal 1──* tally_record (scope_kind = 'supports')

Uniqueness is enforced in the schema, not in handler logic:

  - tally_record PRIMARY KEY (scope_kind, scope_id, user_id)
  - signature.phone UNIQUE
  - signature (name, phone) UNIQUE

# Indexes

Performance indexes on:

  - proposal.status
  - tally_record.(scope_kind, scope_id)
  - signature.created_at
*/
package db
