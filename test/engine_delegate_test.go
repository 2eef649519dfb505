package test

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"testing"
)

// TestEngine_SharedHelperComplexity ensures that methods on Engine in
// engine.go stay below a maximum line count. engine.go holds only the
// plumbing every flow shares; a method that outgrows the limit is almost
// certainly accumulating flow logic that belongs in its own engine_<flow>.go
// file.
//
// Allowed exceptions must be listed below with mandatory metadata:
// - Reason: why the exception exists
// - Target: the engine_<flow>.go file the logic should migrate to
// - RemoveBy: a version or milestone when the exception should be removed
//
// Exceptions without this metadata are rejected at test time to prevent
// permanent exception creep.
func TestEngine_SharedHelperComplexity(t *testing.T) {
	const maxLines = 50
	const filename = "../engine.go"

	// sharedHelperException describes one allowed exception to the line
	// limit. All fields are required — an entry missing reason, target, or
	// removeBy fails the test to force cleanup.
	type sharedHelperException struct {
		limit    int    // maximum allowed lines for this method
		reason   string // why the exception is needed
		target   string // flow file the logic should migrate to
		removeBy string // version or milestone when this should be removed
	}

	// No exceptions at present. New entries need full metadata.
	exceptions := map[string]sharedHelperException{}

	// Validate that every exception has complete metadata — prevents "permanent exceptions".
	for name, exc := range exceptions {
		if exc.reason == "" {
			t.Errorf("exception %q missing reason", name)
		}
		if exc.target == "" {
			t.Errorf("exception %q missing target flow file", name)
		}
		if exc.removeBy == "" {
			t.Errorf("exception %q missing removeBy version/milestone", name)
		}
	}

	funcSig := regexp.MustCompile(`^func \(e \*Engine\) ([A-Za-z]\w*)\(`)

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open %s: %v", filename, err)
	}
	defer f.Close()

	type methodInfo struct {
		name  string
		start int
		depth int
	}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	var current *methodInfo
	var violations []string

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if current == nil {
			if m := funcSig.FindStringSubmatch(line); m != nil {
				current = &methodInfo{
					name:  m[1],
					start: lineNum,
					depth: strings.Count(line, "{") - strings.Count(line, "}"),
				}
				continue
			}
		}

		if current != nil {
			current.depth += strings.Count(line, "{") - strings.Count(line, "}")
			if current.depth <= 0 {
				length := lineNum - current.start + 1
				limit := maxLines
				if exc, ok := exceptions[current.name]; ok {
					limit = exc.limit
				}
				if length > limit {
					violations = append(violations, current.name)
					t.Errorf("%s:%d: method %s is %d lines (limit %d); move flow logic to its engine_<flow>.go file",
						filename, current.start, current.name, length, limit)
				}
				current = nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", filename, err)
	}

	if len(violations) > 0 {
		t.Logf("Detected %d method(s) exceeding their line budget. "+
			"engine.go carries shared plumbing only; flow logic lives in engine_<flow>.go files.",
			len(violations))
	}
}
