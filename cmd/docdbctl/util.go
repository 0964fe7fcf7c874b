package main

import (
	"os"
	"strings"
)

// readJSONArg accepts either a literal JSON document or a path to a file
// containing one, distinguishing the two by whether the argument starts
// with "{".
func readJSONArg(arg string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(arg), "{") {
		return []byte(arg), nil
	}
	return os.ReadFile(arg)
}
