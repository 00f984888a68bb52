package batch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/internal/mlog"
)

// Row is one record read from or appended to an ItemLog, keyed by column
// name.
type Row map[string]string

// ItemLog is an append-only CSV log of items processed by a batch run,
// keyed by one column (typically the item's source path). It answers
// Contains in O(1) against an in-memory key set built once at open time,
// and Len always equals the number of distinct keys seen.
//
// Grounded on ItemLog in plastron-jobs/src/plastron/jobs/logs.py.
type ItemLog struct {
	path        string
	fieldnames  []string
	keyField    string
	writeHeader bool
	logger      mlog.Logger

	mu   sync.Mutex
	keys map[string]bool
	file *os.File
	w    *csv.Writer
}

// OpenItemLog opens (or prepares to create) the CSV log at path. If the
// file already exists, its keys are loaded immediately; its header row is
// compared against fieldnames and a mismatch is logged as a warning, not a
// failure — a differently-shaped existing log is still read best-effort.
func OpenItemLog(path string, fieldnames []string, keyField string, writeHeader bool, logger mlog.Logger) (*ItemLog, error) {
	if logger == nil {
		logger = &mlog.NoneLogger{}
	}

	l := &ItemLog{
		path:        path,
		fieldnames:  fieldnames,
		keyField:    keyField,
		writeHeader: writeHeader,
		logger:      logger,
		keys:        make(map[string]bool),
	}

	if l.Exists() {
		if err := l.loadKeys(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Exists reports whether the backing CSV file exists.
func (l *ItemLog) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

func (l *ItemLog) loadKeys() error {
	rows, err := l.Rows()
	if err != nil {
		return err
	}

	for n, row := range rows {
		key, ok := row[l.keyField]
		if !ok {
			return merrors.ItemLogError{Path: l.path, Message: "key field " + l.keyField + " not found in row " + strconv.Itoa(n+1)}
		}

		l.keys[key] = true
	}

	return nil
}

// Rows reads every row currently in the log. A header mismatch against
// the log's configured fieldnames is logged as a warning; the rows are
// still returned keyed by whatever header the file actually has.
func (l *ItemLog) Rows() ([]Row, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, merrors.ItemLogError{Path: l.path, Message: err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, merrors.ItemLogError{Path: l.path, Message: err.Error()}
	}

	if !sameFields(header, l.fieldnames) {
		l.logger.Warnf("fieldnames in %s do not match expected fieldnames; expected: %v; found: %v", l.path, l.fieldnames, header)
	}

	var rows []Row

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, merrors.ItemLogError{Path: l.path, Message: err.Error()}
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Contains reports whether key has already been recorded in the log.
func (l *ItemLog) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.keys[key]
}

// Len returns the number of distinct keys recorded.
func (l *ItemLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.keys)
}

// Append writes row to the log and records its key, creating the file
// (and writing a header, if configured) on first use.
func (l *ItemLog) Append(row Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := l.openForAppend(); err != nil {
			return err
		}
	}

	record := make([]string, len(l.fieldnames))
	for i, name := range l.fieldnames {
		record[i] = row[name]
	}

	if err := l.w.Write(record); err != nil {
		return merrors.ItemLogError{Path: l.path, Message: err.Error()}
	}

	l.w.Flush()

	if err := l.w.Error(); err != nil {
		return merrors.ItemLogError{Path: l.path, Message: err.Error()}
	}

	l.keys[row[l.keyField]] = true

	return nil
}

func (l *ItemLog) openForAppend() error {
	needsHeader := l.writeHeader && !l.Exists()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return merrors.ItemLogError{Path: l.path, Message: err.Error()}
	}

	l.file = f
	l.w = csv.NewWriter(f)

	if needsHeader {
		if err := l.w.Write(l.fieldnames); err != nil {
			return merrors.ItemLogError{Path: l.path, Message: err.Error()}
		}

		l.w.Flush()
	}

	return nil
}

// Close closes the underlying file handle, if one is open.
func (l *ItemLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	l.w = nil

	return err
}
