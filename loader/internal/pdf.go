package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"lexconnect/types"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

var titleRe = regexp.MustCompile(`([A-Z].*?v(?:ersus)?\.?.*?)\n`)

// ExtractTitle pulls a best-effort "X versus Y" case heading out of page
// text. Returns "" when no heading is found.
func ExtractTitle(text string) string {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// LoadPages reads a corpus source file into pages. PDFs are split per page;
// plain text files count as a single page 1.
func LoadPages(path string) ([]types.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDFPages(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []types.Page{{File: filepath.Base(path), Number: 1, Text: string(data)}}, nil
	default:
		return nil, fmt.Errorf("unsupported corpus file type: %s", path)
	}
}

func loadPDFPages(path string) ([]types.Page, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("page count for %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	conf := api.LoadConfiguration()
	ctx, err := api.ReadValidateAndOptimize(file, conf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)

	var pages []types.Page
	for pageNum := 1; pageNum <= count; pageNum++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNum)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", pageNum, path, err)
		}
		text := contentStreamText(r)
		pages = append(pages, types.Page{File: name, Number: pageNum, Text: text})
	}
	return pages, nil
}

// contentStreamText scrapes the string literals out of a PDF content stream.
// Parenthesized operands of the text-show operators cover the judgment PDFs
// this corpus is built from; hex strings and CID-encoded fonts are not
// handled.
func contentStreamText(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}

	var b strings.Builder
	i := 0
	for i < len(data) {
		if data[i] != '(' {
			i++
			continue
		}
		i++
		depth := 1
		var lit strings.Builder
		for i < len(data) && depth > 0 {
			ch := data[i]
			switch ch {
			case '\\':
				i++
				if i < len(data) {
					switch data[i] {
					case 'n':
						lit.WriteByte('\n')
					case 't':
						lit.WriteByte(' ')
					case '(', ')', '\\':
						lit.WriteByte(data[i])
					}
					i++
				}
			case '(':
				depth++
				lit.WriteByte(ch)
				i++
			case ')':
				depth--
				if depth > 0 {
					lit.WriteByte(ch)
				}
				i++
			default:
				lit.WriteByte(ch)
				i++
			}
		}
		if s := lit.String(); s != "" {
			b.WriteString(s)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// MoveToArchive relocates a processed source file into a dated subdirectory
// of the archive dir, or the bad dir when processing failed.
func MoveToArchive(filePath, archiveDir, badDir string, failed bool) error {
	destRoot := archiveDir
	if failed {
		destRoot = badDir
	}

	destDir := filepath.Join(destRoot, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(filePath))

	// Keep both copies on a name clash.
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(destPath)
		baseName := strings.TrimSuffix(filepath.Base(filePath), ext)
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
		counter++
	}

	if err := os.Rename(filePath, destPath); err != nil {
		return fmt.Errorf("move %s to archive: %w", filePath, err)
	}
	return nil
}

// CreateDirectories makes sure the loader's working directories exist.
func CreateDirectories(dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("error creating directory %s: %s\n", dir, err)
		}
	}
}
