// Package db embeds the PostgreSQL schema.
package db

import _ "embed"

// Schema creates the draft, history and preference tables. It is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
