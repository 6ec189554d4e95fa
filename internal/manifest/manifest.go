// Package manifest reads panel rotation manifests.
//
// A rotation manifest lists, for each panel, the panel that follows it in
// continuous mode, the named context mutation applied on the way, and the
// status message shown during the transition. It lets the rotation cycle be
// configured without code changes.
//
// CSV format:
//
//	panel,next,mutation,message
//	terminal,ide,upgrade,Scaling infrastructure for the next release
//	ide,deploy,none,Code audited. Handing off to deploy
//	deploy,marketing,none,Release live. Preparing launch campaign
//	marketing,image,none,Campaign drafted. Generating visuals
//	image,crm,none,Visuals ready. Updating the sales pipeline
//	crm,terminal,grow,New users onboarded. Watching the logs
//
// Rows are in rotation order. Each panel may appear at most once.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// TransitionEntry represents a single row in the rotation manifest.
type TransitionEntry struct {
	// Panel is the panel whose completion triggers this transition.
	Panel string

	// Next is the panel that runs after Panel.
	Next string

	// Mutation names the context mutation applied during the transition.
	// Empty means "none".
	Mutation string

	// Message is the status message shown while waiting for Next.
	Message string
}

// Manifest holds all transition entries parsed from a manifest CSV file.
type Manifest struct {
	// Entries are the transitions in rotation order.
	Entries []TransitionEntry
}

// ReadFromFile reads and parses a rotation manifest CSV file.
func ReadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return readFromReader(f)
}

// ReadFromString parses a rotation manifest from a CSV string.
// This is useful for testing and for embedding manifest data.
func ReadFromString(data string) (*Manifest, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var entries []TransitionEntry
	seen := make(map[string]int)
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", lineNum, err)
		}

		entry := TransitionEntry{
			Panel:    getField(record, colIndex, "panel"),
			Next:     getField(record, colIndex, "next"),
			Mutation: getField(record, colIndex, "mutation"),
			Message:  getField(record, colIndex, "message"),
		}

		if entry.Panel == "" {
			return nil, fmt.Errorf("manifest line %d: panel is required", lineNum)
		}
		if entry.Next == "" {
			return nil, fmt.Errorf("manifest line %d: next panel is required", lineNum)
		}
		if prev, dup := seen[entry.Panel]; dup {
			return nil, fmt.Errorf("manifest line %d: panel %q already has a transition on line %d", lineNum, entry.Panel, prev)
		}
		seen[entry.Panel] = lineNum

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest contains no transition entries")
	}

	return &Manifest{Entries: entries}, nil
}

// requiredColumns are the columns that must be present in the manifest CSV.
var requiredColumns = []string{"panel", "next"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("manifest missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
