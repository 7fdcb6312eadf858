package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Supported file formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	IDColumn          string // Column with the question ID
	CategoryColumn    string // Column with the category
	PromptColumn      string // Column with the question text
	AnswerColumn      string // Column with the accepted answer
	ExplanationColumn string // Column with the explanation, optional
	SheetName         string // Name of the sheet to import; empty means the first sheet
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		IDColumn:          "A",
		CategoryColumn:    "B",
		PromptColumn:      "C",
		AnswerColumn:      "D",
		ExplanationColumn: "E",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// QuestionStore is where imported questions go
type QuestionStore interface {
	GetByID(ctx context.Context, id string) (*models.Question, error)
	Upsert(ctx context.Context, q *models.Question) error
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// ImportFile parses path and stores its questions
func ImportFile(ctx context.Context, store QuestionStore, path string, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open import file")
	}
	defer f.Close()

	return Import(ctx, store, f, FormatFromPath(path), config)
}

// Import parses r in the given format and stores its questions.
// Bad rows are reported in the result and do not stop the import.
func Import(ctx context.Context, store QuestionStore, r io.Reader, format string, config ImportConfig) (*ImportResult, error) {
	rows, err := readRows(r, format, config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	questions := parseRows(rows, config, result)

	for _, q := range questions {
		q := q
		_, err := store.GetByID(ctx, q.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return result, err
		}
		if err := store.Upsert(ctx, &q); err != nil {
			return result, err
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, nil
}

// Parse reads questions from r without storing them
func Parse(r io.Reader, format string, config ImportConfig) ([]models.Question, *ImportResult, error) {
	rows, err := readRows(r, format, config)
	if err != nil {
		return nil, nil, err
	}
	result := &ImportResult{Errors: make([]string, 0)}
	return parseRows(rows, config, result), result, nil
}

func readRows(r io.Reader, format string, config ImportConfig) ([][]string, error) {
	switch format {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // Allow variable number of fields
		reader.LazyQuotes = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		return rows, nil
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open Excel file")
		}
		defer f.Close()

		sheet := config.SheetName
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get rows of sheet %q", sheet)
		}
		return rows, nil
	default:
		return nil, errors.Wrapf(models.ErrInvalidArgument, "unsupported import format %q", format)
	}
}

// parseRows turns raw rows into questions. A row with only the first cell set is a
// category header and applies to the following rows that leave their category empty.
func parseRows(rows [][]string, config ImportConfig, result *ImportResult) []models.Question {
	var questions []models.Question
	seen := make(map[string]int)
	currentCategory := ""

	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}

		if header, ok := categoryHeader(row); ok {
			currentCategory = header
			continue
		}

		result.TotalProcessed++

		q := models.Question{
			ID:          cell(row, config.IDColumn),
			Category:    cell(row, config.CategoryColumn),
			Prompt:      cell(row, config.PromptColumn),
			Answer:      cell(row, config.AnswerColumn),
			Explanation: cell(row, config.ExplanationColumn),
		}
		if q.Category == "" {
			q.Category = currentCategory
		}

		if err := validateQuestion(q); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if first, dup := seen[q.ID]; dup {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: duplicate id %s (first on row %d)", rowNum, q.ID, first))
			continue
		}
		seen[q.ID] = rowNum
		questions = append(questions, q)
	}
	return questions
}

func validateQuestion(q models.Question) error {
	switch {
	case q.ID == "":
		return errors.New("id cannot be empty")
	case q.Prompt == "":
		return errors.New("question cannot be empty")
	case q.Answer == "":
		return errors.New("answer cannot be empty")
	case q.Category == "":
		return errors.New("category cannot be empty")
	}
	return nil
}

func categoryHeader(row []string) (string, bool) {
	first := strings.Trim(strings.TrimSpace(row[0]), "\"")
	if first == "" {
		return "", false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return "", false
		}
	}
	return first, true
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
