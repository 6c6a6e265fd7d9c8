package ftp

import (
	"bytes"
	"fmt"
	"os"
)

// Listing renders what LIST sends over the data channel: one CRLF-ended
// line per entry, each the entry's path as the server sees it (the
// chroot spelling plus the path below it), sorted by name. Listing a
// file yields a single line for the file itself, the way ls would print
// it.
func Listing(sandbox *Sandbox, canonical string) ([]byte, error) {
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", canonical, err)
	}
	if !info.IsDir() {
		return []byte(sandbox.ListPath(canonical) + "\r\n"), nil
	}

	entries, err := os.ReadDir(canonical)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", canonical, err)
	}

	prefix := sandbox.ListPath(canonical)
	var buf bytes.Buffer
	for _, entry := range entries {
		buf.WriteString(prefix)
		buf.WriteByte('/')
		buf.WriteString(entry.Name())
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}
