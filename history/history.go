// Package history keeps a local, encrypted log of encode/decode runs:
// which file went in, which video came out, how many chunks and
// packets were involved, and whether it succeeded. It is an external
// collaborator to the codec itself — nothing in chunk, fountain,
// frame, metadata, cryptography, videostream, or pipeline depends on
// it, and it records nothing the codec needs to operate.
package history

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	_ "github.com/xeodou/go-sqlcipher"

	"rvs/cryptography"
	"rvs/util"
)

// hmacSalt is fixed, not secret: the per-row HMAC key is derived from
// the caller's database password, and the salt only needs to separate
// that derivation from DeriveDBPassword's, not hide anything on its
// own.
var hmacSalt = []byte("rvs-history-row-hmac")

// Kind distinguishes an encode run from a decode run.
type Kind string

const (
	KindEncode Kind = "encode"
	KindDecode Kind = "decode"
)

// Record is one logged run.
type Record struct {
	ID          string
	Kind        Kind
	InputPath   string
	OutputPath  string
	ChunkCount  uint32
	PacketCount uint32
	ErrorKind   string // empty on success
	Timestamp   int64  // unix seconds, supplied by the caller
	Tampered    bool   // set by Recent if the row's HMAC doesn't match its contents
}

// DB is a sqlcipher-backed append log, row-capped the same way the
// original packet-dedup log was: once RowsLimit is exceeded, the file
// is shredded and recreated rather than left to grow without bound.
type DB struct {
	db        *sql.DB
	rowsLimit uint
	hmacKey   []byte
}

// Open connects to (creating if absent) an encrypted history database
// at filename, under password, capped at rowsLimit rows. Every row is
// additionally authenticated with an HMAC keyed off password, so a
// row edited directly against the sqlcipher file (bypassing the
// encryption layer's own page-level integrity) is still caught.
func Open(filename, password string, rowsLimit uint) (*DB, error) {
	dsn := "file:" + url.QueryEscape(filename) + "?_journal_mode=WAL&_key=" + url.QueryEscape(password)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	hmacKey := cryptography.DeriveKey([]byte(password), hmacSalt)
	result := &DB{db: sqlDB, rowsLimit: rowsLimit, hmacKey: hmacKey}
	if err := result.init(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	count, err := result.Count()
	if err == nil && uint(count) > rowsLimit {
		sqlDB.Close()
		if err := util.ShredFile(filename); err != nil {
			return nil, err
		}
		return Open(filename, password, rowsLimit)
	}
	return result, nil
}

func (d *DB) init() error {
	_, err := d.db.Exec(`create table if not exists runs(
		id text not null primary key,
		kind text not null,
		input_path text not null,
		output_path text not null,
		chunk_count integer not null,
		packet_count integer not null,
		error_kind text not null,
		timestamp integer not null,
		checksum text not null default ''
	);`)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`create index if not exists runs_timestamp_idx on runs(timestamp);`)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.db.Close() }

// canonicalRow renders the fields an HMAC covers in a fixed, delimited
// order, so reordering columns later doesn't silently change what's
// authenticated.
func canonicalRow(r Record) []byte {
	return []byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d\x00%d\x00%s\x00%d",
		r.ID, r.Kind, r.InputPath, r.OutputPath, r.ChunkCount, r.PacketCount, r.ErrorKind, r.Timestamp))
}

// Append records one run. ID is generated if r.ID is empty.
func (d *DB) Append(r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	checksum := fmt.Sprintf("%x", cryptography.HMACBytes(canonicalRow(r), d.hmacKey))
	_, err := d.db.Exec(
		`insert into runs(id, kind, input_path, output_path, chunk_count, packet_count, error_kind, timestamp, checksum)
		 values (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, string(r.Kind), r.InputPath, r.OutputPath, r.ChunkCount, r.PacketCount, r.ErrorKind, r.Timestamp, checksum,
	)
	return err
}

// Count returns the number of logged runs.
func (d *DB) Count() (int, error) {
	row := d.db.QueryRow(`select count(*) from runs;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return -1, err
	}
	return n, nil
}

// Recent returns up to limit most recent runs, newest first. Each
// row's HMAC is checked against its contents; a mismatch doesn't stop
// the scan, it just flags that row as Tampered so callers can still
// see the rest of the log.
func (d *DB) Recent(limit int) ([]Record, error) {
	rows, err := d.db.Query(
		`select id, kind, input_path, output_path, chunk_count, packet_count, error_kind, timestamp, checksum
		 from runs order by timestamp desc limit ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var kind, checksum string
		if err := rows.Scan(&r.ID, &kind, &r.InputPath, &r.OutputPath, &r.ChunkCount, &r.PacketCount, &r.ErrorKind, &r.Timestamp, &checksum); err != nil {
			return nil, err
		}
		r.Kind = Kind(kind)

		expected, err := hex.DecodeString(checksum)
		if err != nil || !cryptography.VerifyHMACBytes(canonicalRow(r), d.hmacKey, expected) {
			r.Tampered = true
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeriveDBPassword derives a sqlcipher key string from a user password
// and salt, reusing the same key-derivation used for the local
// configuration file.
func DeriveDBPassword(password, salt []byte) string {
	return cryptography.Hash(cryptography.DeriveKey(password, salt))
}
