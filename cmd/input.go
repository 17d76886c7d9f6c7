package cmd

import (
	"fmt"
	"io"
	"os"
)

const stdinName = "-"

// readInput loads a whole file, or r when name is "-".
func readInput(name string, r io.Reader) ([]byte, error) {
	if name == stdinName {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
