package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"minutes/internal/textutil"
)

// RenderExport builds the plain-text document for a summary:
//
//	<title>
//	=======
//
//	Generated: <timestamp>
//	Prompt: <prompt>
//
//	<summary>
func RenderExport(title, prompt, summary string, generated time.Time) Export {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format(generatedLayout))
	fmt.Fprintf(&b, "Prompt: %s\n\n", prompt)
	b.WriteString(summary)
	return Export{
		FileName: textutil.TextFileName(title),
		Content:  b.String(),
	}
}

// WriteTo writes the export into dir and returns the file path.
func (e Export) WriteTo(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	path := filepath.Join(dir, e.FileName)
	if err := os.WriteFile(path, []byte(e.Content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", e.FileName, err)
	}
	return path, nil
}
