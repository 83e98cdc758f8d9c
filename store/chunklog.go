package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"lexconnect/types"
)

// ChunkLog is an append-only newline-delimited JSON log of chunk records,
// one record per line, UTF-8. The loader writes two of these: the full-text
// log and the metadata-only log whose line order mirrors the vector index.
type ChunkLog struct {
	path string
	file *os.File
	w    *bufio.Writer
}

func OpenChunkLog(path string) (*ChunkLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open chunk log %s: %w", path, err)
	}
	return &ChunkLog{path: path, file: file, w: bufio.NewWriter(file)}, nil
}

func (l *ChunkLog) Append(rec types.ChunkRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal chunk record %s: %w", rec.ChunkID, err)
	}
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return nil
}

func (l *ChunkLog) Flush() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

func (l *ChunkLog) Close() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

// LoadChunkRecords reads a whole chunk log into memory. Blank lines are
// skipped; a malformed line is an error, not a silent drop, since a hole
// would shift every later record against the index.
func LoadChunkRecords(path string) ([]types.ChunkRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunk log %s: %w", path, err)
	}
	defer file.Close()

	var records []types.ChunkRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec types.ChunkRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chunk log %s: %w", path, err)
	}
	return records, nil
}
