// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is kept portable between sqlite and postgres: no server-side
// defaults (timestamps are always bound by the caller), no dialect types.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Vote topics: seeded at startup, extended by promotion and by admins.
-- Never deleted; "expired" is derived from deadline, not stored.
CREATE TABLE IF NOT EXISTS topic (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtitle TEXT,
    description TEXT,
    detail TEXT,
    agree_text TEXT,
    disagree_text TEXT,
    color TEXT,
    deadline TEXT NOT NULL,
    start_date TEXT,
    promoted_from TEXT,
    proposer_name TEXT,
    created_at TIMESTAMP NOT NULL
);

-- Citizen-submitted topic candidates. Status transitions are one-way:
-- proposal -> promoted | rejected, both terminal.
CREATE TABLE IF NOT EXISTS proposal (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtitle TEXT,
    description TEXT,
    detail TEXT,
    proposer_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'proposal' CHECK (status IN ('proposal', 'promoted', 'rejected')),
    created_at TIMESTAMP NOT NULL,
    promoted_at TIMESTAMP,
    rejected_at TIMESTAMP,
    rejected_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_proposal_status ON proposal(status);

-- One row per (scope, user): votes on topics and supports on proposals
-- share this table, with the scope an explicit (kind, id) pair. The
-- composite primary key is the uniqueness guarantee.
CREATE TABLE IF NOT EXISTS tally_record (
    scope_kind TEXT NOT NULL CHECK (scope_kind IN ('votes', 'supports')),
    scope_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    choice TEXT NOT NULL CHECK (choice IN ('agree', 'disagree')),
    display_name TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (scope_kind, scope_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tally_record_scope ON tally_record(scope_kind, scope_id);

-- Petition signatures. Phone is globally unique; (name, phone) is kept
-- as an independent constraint on top of it.
CREATE TABLE IF NOT EXISTS signature (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('individual', 'organization')),
    address TEXT,
    talent TEXT,
    phone TEXT NOT NULL UNIQUE,
    sns TEXT,
    created_at TIMESTAMP NOT NULL,
    user_id TEXT,
    login_method TEXT,
    user_email TEXT,
    UNIQUE (name, phone)
);

CREATE INDEX IF NOT EXISTS idx_signature_created_at ON signature(created_at);
`
