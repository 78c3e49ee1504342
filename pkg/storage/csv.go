package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/models"
)

// CSVWriter writes player records to a CSV file, syncing after every row
type CSVWriter struct {
	path string
	file *os.File
	w    *csv.Writer
	rows int
	mu   sync.Mutex
}

// OpenCSV opens path in the given output mode.
// Fresh mode truncates the file. Append mode keeps existing rows.
// The header is written whenever the file ends up empty.
func OpenCSV(path, mode string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	switch mode {
	case config.OutputModeFresh:
		flags |= os.O_TRUNC
	case config.OutputModeAppend, "":
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("unknown output mode: %s", mode)
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	cw := &CSVWriter{path: path, file: file, w: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := cw.writeLine(models.CSVHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return cw, nil
}

// Write appends one record and syncs it to disk
func (c *CSVWriter) Write(ctx context.Context, rec models.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLine(rec.Row()); err != nil {
		return fmt.Errorf("failed to write record %q: %w", rec.Name, err)
	}
	c.rows++
	return nil
}

func (c *CSVWriter) writeLine(line []string) error {
	if err := c.w.Write(line); err != nil {
		return err
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.file.Sync()
}

// Rows returns how many records were written through this writer
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Path returns the output file path
func (c *CSVWriter) Path() string {
	return c.path
}

// Close flushes and closes the file
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return c.file.Close()
}

// CountRows returns the number of data rows in an existing CSV file,
// excluding the header. A missing file has zero rows.
func CountRows(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	lines := 0
	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("failed to parse output file: %w", err)
		}
		lines++
	}
	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil
}
