package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/junnakarai/bankpocket/internal/store"
)

// exportHeader matches the import contract: the first four columns are
// the account fields, the fifth is the ;-joined tag names.
var exportHeader = []string{"銀行名", "支店名", "支店番号", "口座番号", "タグ", "作成日", "更新日"}

// ExportFileName is the fixed name of the generated export file.
const ExportFileName = "口座一覧.csv"

const timestampLayout = "2006-01-02 15:04:05"

// Engine runs CSV export and import against a store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// NewEngine creates an Engine backed by the given store.
func NewEngine(st *store.Store) *Engine {
	return &Engine{
		store: st,
		now:   time.Now,
	}
}

// Export writes all accounts as CSV in the store's natural order.
// Fields containing commas, quotes, or newlines are quoted with
// internal quotes doubled; timestamps are local time.
func (e *Engine) Export(ctx context.Context, w io.Writer) error {
	accounts, err := e.store.ListAccounts(ctx, "", nil)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, a := range accounts {
		tags, err := e.store.TagsForAccount(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("tags for account: %w", err)
		}
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Name
		}

		record := []string{
			a.BankName,
			a.BranchName,
			a.BranchNumber,
			a.AccountNumber,
			strings.Join(names, ";"),
			a.CreatedAt.Format(timestampLayout),
			a.UpdatedAt.Format(timestampLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportToFile writes the export to a fixed-name file in the system
// temp directory and returns its path. The file handle is closed on
// every path; a partially written file is removed on failure.
func (e *Engine) ExportToFile(ctx context.Context) (string, error) {
	path := filepath.Join(os.TempDir(), ExportFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if err := e.Export(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
