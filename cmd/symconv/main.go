// symconv converts a raw type-id dump to symbols.yaml.
//
// Each dump line is "<context>\t<index>\t<type name>" with raw, undecorated
// names exactly as the host prints them. An empty context field marks a
// symbol without context. Lines starting with '#' are ignored.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/entitybind/entitybind/internal/data"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: symconv <typeids.tsv> <output.yaml>")
		os.Exit(1)
	}

	inFile, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer inFile.Close()

	contexts, symbols, err := parseDump(inFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	out, err := data.EncodeSymbolTable(contexts, symbols)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	header := fmt.Sprintf("# Symbol table, auto-generated from %s (%d contexts, %d symbols)\n",
		os.Args[1], len(contexts), len(symbols))
	if err := os.WriteFile(os.Args[2], append([]byte(header), out...), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d symbols to %s\n", len(symbols), os.Args[2])
}

// parseDump reads dump lines in order. Context ids are assigned from 1 in
// first-seen order; duplicate symbols are kept.
func parseDump(r io.Reader) ([]data.ContextEntry, []data.SymbolEntry, error) {
	var (
		contexts []data.ContextEntry
		symbols  []data.SymbolEntry
		ids      = make(map[string]uint32)
	)

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, len(buf))

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, nil, fmt.Errorf("line %d: want 3 tab-separated fields, got %d", lineNo, len(fields))
		}
		index, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: index: %w", lineNo, err)
		}

		var ctx uint32
		if name := fields[0]; name != "" {
			id, ok := ids[name]
			if !ok {
				id = uint32(len(contexts) + 1)
				ids[name] = id
				contexts = append(contexts, data.ContextEntry{ID: id, Name: name})
			}
			ctx = id
		}
		symbols = append(symbols, data.SymbolEntry{Index: int32(index), Name: fields[2], Context: ctx})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read dump: %w", err)
	}
	return contexts, symbols, nil
}
