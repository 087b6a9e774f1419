// Package store implements the snapshot store shared by all pipeline stages:
// per-run, per-table objects held in object storage under a deterministic key
// scheme, plus the manifest log written at the end of an extract run.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/aws/s3"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/constants"
	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// Key returns the object key for one table's snapshot within one run.
// The scheme data/{run_token}/{table_name}{extension} is shared with the
// other stages and must not change.
func Key(tableName, runToken, extension string) string {
	return fmt.Sprintf("%s/%s/%s%s", constants.SnapshotKeyPrefix, runToken, tableName, extension)
}

// LogKey returns the object key of the manifest log for a run completed at
// the supplied time.
func LogKey(completedAt time.Time) string {
	return fmt.Sprintf("%s/%s.log", constants.LogKeyPrefix, completedAt.Format(constants.TimeFormatLogStamp))
}

// Store reads and writes per-run table objects through a BasicClient.
type Store struct {
	client s3.BasicClient
}

func New(client s3.BasicClient) *Store {
	return &Store{client: client}
}

// ReadTable fetches and decodes the JSON snapshot of one source table.
func (s *Store) ReadTable(tableName, runToken string) (table.Table, error) {
	key := Key(tableName, runToken, constants.ExtensionJSON)
	data, err := s.client.Get(key)
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "unable to read snapshot %q", key)
	}
	t, err := DecodeSnapshot(tableName, data)
	if err != nil {
		return table.Table{}, errors.Wrapf(err, "unable to decode snapshot %q", key)
	}
	return t, nil
}

// PutSnapshot JSON-encodes one source table and writes it under the run token.
// It returns the object key written.
func (s *Store) PutSnapshot(t table.Table, runToken string) (string, error) {
	data, err := EncodeSnapshot(t)
	if err != nil {
		return "", errors.Wrapf(err, "unable to encode snapshot for table %q", t.Name)
	}
	key := Key(t.Name, runToken, constants.ExtensionJSON)
	if err := s.client.Put(key, data); err != nil {
		return "", errors.Wrapf(err, "unable to write snapshot %q", key)
	}
	return key, nil
}

// PutColumnar writes one derived table's columnar bytes under the run token.
// It returns the object key written.
func (s *Store) PutColumnar(tableName, runToken string, data []byte) (string, error) {
	key := Key(tableName, runToken, constants.ExtensionParquet)
	if err := s.client.Put(key, data); err != nil {
		return key, errors.Wrapf(err, "unable to write columnar file %q", key)
	}
	return key, nil
}

// GetColumnar fetches one derived table's columnar bytes for the run token.
func (s *Store) GetColumnar(tableName, runToken string) ([]byte, error) {
	key := Key(tableName, runToken, constants.ExtensionParquet)
	data, err := s.client.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read columnar file %q", key)
	}
	return data, nil
}

// PutManifest writes the upload log for a run: one line per uploaded key with
// its upload timestamp. Returns the log's object key.
func (s *Store) PutManifest(keys []string, uploadedAt time.Time) (string, error) {
	if len(keys) == 0 {
		return "", errors.New("no uploaded keys to log")
	}
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("Uploaded: %s at %s", k, uploadedAt.Format(constants.TimeFormatLogStamp)))
	}
	key := LogKey(uploadedAt)
	if err := s.client.Put(key, []byte(strings.Join(lines, "\n"))); err != nil {
		return "", errors.Wrapf(err, "unable to write manifest log %q", key)
	}
	return key, nil
}
