// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

// pageTimeout bounds text extraction for a single PDF page. Malformed
// pages can send the parser into unbounded work.
const pageTimeout = 10 * time.Second

var errPageTimeout = errors.New("page extraction timed out")

// pdfExtractor extracts text from PDF files page by page.
// A page that fails to parse is skipped rather than failing the document.
type pdfExtractor struct{}

func (e *pdfExtractor) Extract(path string) (string, error) {
	logger := slog.Default().With("component", "pdf-extractor")

	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := f.NumPage()
	skipped := 0
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			skipped++
			continue
		}

		content, err := extractPage(page)
		if err != nil {
			logger.Warn("skipping unreadable page", "path", path, "page", i, "err", err)
			skipped++
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}

	if skipped > 0 {
		logger.Info("pdf extracted with skipped pages", "path", path, "pages", numPages, "skipped", skipped)
	}
	return sb.String(), nil
}

// extractPage runs GetPlainText under a timeout. The parser offers no
// context support, so the goroutine is abandoned on timeout.
func extractPage(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageTimeout):
		return "", errPageTimeout
	}
}
