package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

const linearTOML = `
title = "Go basics"

[[steps]]
id = "intro"
type = "video"
name = "Intro"

[[steps]]
id = "syntax"
type = "text"
name = "Syntax"

[[steps]]
id = "check"
type = "quiz"
name = "Check"

[validation.Check]
valid = false
messages = ["no questions"]
`

// writeDoc writes a course document into a fresh temp dir.
func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *log.Logger { return newLogger(io.Discard, log.InfoLevel) }
