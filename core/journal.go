package core

import (
	"bufio"
	"encoding/json"
	"os"
)

// journal is a minimal write-ahead log: newline-delimited JSON records,
// opened append-only and replayed line-by-line on startup. Both LocalDAG
// and WitnessStore use it for durability, the same append-then-replay
// pattern the teacher's ledger uses for blocks.
type journal struct {
	file *os.File
}

// openJournal opens (creating if absent) the WAL at path and replays every
// line through decode, in order.
func openJournal(path string, decode func(line []byte) error) (*journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, Fail(ErrVerify, "open journal %s: %v", path, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := decode(append([]byte(nil), line...)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		_ = f.Close()
		return nil, Fail(ErrVerify, "scan journal %s: %v", path, err)
	}
	return &journal{file: f}, nil
}

// append writes v as one JSON line and fsyncs the append, so a process
// crash never loses an acknowledged write.
func (j *journal) append(v interface{}) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return Fail(ErrVerify, "encode journal entry: %v", err)
	}
	blob = append(blob, '\n')
	if _, err := j.file.Write(blob); err != nil {
		return Fail(ErrVerify, "write journal entry: %v", err)
	}
	return j.file.Sync()
}

func (j *journal) Close() error {
	return j.file.Close()
}
