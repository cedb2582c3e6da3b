package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/market-ar/market/internal/listings"
	"github.com/market-ar/market/internal/models"
)

// Row is the on-disk shape of a listing. Enums are stored by name.
type Row struct {
	ID          int64   `parquet:"id" json:"id"`
	ProductName string  `parquet:"product_name" json:"product_name"`
	Category    string  `parquet:"category" json:"category"`
	Price       float64 `parquet:"price" json:"price"`
	Condition   string  `parquet:"condition" json:"condition"`
	ImageURL    *string `parquet:"image_url,optional" json:"image_url,omitempty"`
	ModelURL    *string `parquet:"model_url,optional" json:"model_url,omitempty"`
}

func toRow(l models.Listing) Row {
	return Row{
		ID:          l.ID,
		ProductName: l.ProductName,
		Category:    l.Category.String(),
		Price:       l.Price,
		Condition:   l.Condition.String(),
		ImageURL:    l.ImageURL,
		ModelURL:    l.ModelURL,
	}
}

func (r Row) listing() (models.Listing, error) {
	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return models.Listing{}, err
	}
	condition, err := models.ParseCondition(r.Condition)
	if err != nil {
		return models.Listing{}, err
	}
	return models.Listing{
		ID:          r.ID,
		ProductName: r.ProductName,
		Category:    category,
		Price:       r.Price,
		Condition:   condition,
		ImageURL:    r.ImageURL,
		ModelURL:    r.ModelURL,
	}, nil
}

type format int

const (
	formatParquet format = iota
	formatJSONL
)

func detectFormat(path string) (format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".parquet":
		return formatParquet, nil
	case ".jsonl", ".json":
		return formatJSONL, nil
	default:
		return 0, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// Export writes every listing to path. The format follows the extension.
func Export(ctx context.Context, store listings.Reader, path string) (int, error) {
	f, err := detectFormat(path)
	if err != nil {
		return 0, err
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read listings: %w", err)
	}
	rows := make([]Row, len(all))
	for i, l := range all {
		rows[i] = toRow(l)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot file: %w", err)
	}

	switch f {
	case formatParquet:
		err = writeParquet(out, rows)
	case formatJSONL:
		err = writeJSONL(out, rows)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}

	slog.Info("Exported listings", "path", path, "count", len(rows))
	return len(rows), nil
}

func writeParquet(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

func writeJSONL(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.ID, err)
		}
	}
	return bw.Flush()
}

// Read loads the rows of a snapshot file
func Read(path string) ([]Row, error) {
	f, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case formatParquet:
		return readParquet(path)
	default:
		return readJSONL(path)
	}
}

func readParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet snapshot opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows, nil
}

func readJSONL(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var rows []Row
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Row
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		rows = append(rows, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}
	return rows, nil
}

// Import inserts every row of the snapshot as a new listing. Ids are
// reassigned by the store. Rows are validated before anything is written.
func Import(ctx context.Context, store listings.Store, path string) ([]models.Listing, error) {
	rows, err := Read(path)
	if err != nil {
		return nil, err
	}

	pending := make([]models.Listing, 0, len(rows))
	for i, r := range rows {
		l, err := r.listing()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		l.ID = 0
		pending = append(pending, l)
	}

	imported := make([]models.Listing, 0, len(pending))
	for _, l := range pending {
		if _, err := store.Insert(ctx, &l); err != nil {
			return imported, fmt.Errorf("failed to insert %q: %w", l.ProductName, err)
		}
		imported = append(imported, l)
	}

	slog.Info("Imported listings", "path", path, "count", len(imported))
	return imported, nil
}
