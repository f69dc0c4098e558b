package extract

import (
	"fmt"
	"os"

	"github.com/lu4p/cat"
)

// textExtractor reads plain text files verbatim.
type textExtractor struct{}

func (e *textExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}

// catExtractor extracts text from DOCX files.
type catExtractor struct{}

func (e *catExtractor) Extract(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract docx: %w", err)
	}
	return text, nil
}
