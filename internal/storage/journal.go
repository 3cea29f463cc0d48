package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"hodor/internal/model"
)

// Journal is an append-only JSONL log of committed ledger operations.
type Journal struct {
	out *JsonlStorage
}

func NewJournal(path string) *Journal {
	return &Journal{out: NewJsonlStorage(path)}
}

// Append writes entries in order.
func (j *Journal) Append(entries ...model.JournalEntry) error {
	return appendLines(j.out, entries)
}

// LastSeq returns the highest sequence number in the journal, or 0 when
// the journal is missing or empty.
func (j *Journal) LastSeq() (uint64, error) {
	var last uint64
	err := ReadJournal(j.out.path, func(entry model.JournalEntry) error {
		if entry.Seq > last {
			last = entry.Seq
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return last, err
}

// ReadJournal calls fn for every entry of the journal at path. Blank lines
// are skipped; a malformed line stops the scan with its line number.
func ReadJournal(path string, fn func(model.JournalEntry) error) error {
	return scanLines(path, func(line []byte) error {
		var entry model.JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		return fn(entry)
	})
}

// ReadEvents calls fn for every pool event in the JSONL file at path.
func ReadEvents(path string, fn func(model.PoolEvent) error) error {
	return scanLines(path, func(line []byte) error {
		var event model.PoolEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return err
		}
		return fn(event)
	})
}

func scanLines(path string, fn func([]byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	return nil
}
