// Package storage keeps uploaded file records and canonical sales
// transactions in a SQLite database (modernc.org/sqlite, no cgo).
//
// Files are unique by SHA-256 content hash. Transactions are unique by
// (bill_no, date, item_name); re-inserting a known key is a no-op.
package storage
