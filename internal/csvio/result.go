// Package csvio implements CSV export of accounts and the row-by-row
// import reconciliation against the store: per-row validation,
// cumulative duplicate detection, tag resolution, and a single
// transactional commit of the surviving rows.
package csvio

import (
	"errors"
	"fmt"
)

// Fatal import errors. Per-row problems never surface here; they are
// collected in ImportResult instead.
var (
	// ErrInvalidFormat means the input is structurally unusable
	// (fewer than two lines, or unparseable CSV).
	ErrInvalidFormat = errors.New("CSVファイルの形式が正しくありません")

	// ErrInvalidRowFormat marks a data line with fewer than the four
	// core fields. Reported per row, never fatal.
	ErrInvalidRowFormat = errors.New("行の形式が正しくありません")
)

// errDuplicateRow is the per-row message for an account that matches an
// existing or already-imported account.
const errDuplicateRow = "重複する口座です"

// ImportResult is the outcome of one import run.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// HasErrors reports whether any row failed.
func (r *ImportResult) HasErrors() bool { return r.ErrorCount > 0 }

// Summary is the one-line result shown to the user.
func (r *ImportResult) Summary() string {
	if r.ErrorCount == 0 {
		return fmt.Sprintf("%d件の口座をインポートしました", r.SuccessCount)
	}
	return fmt.Sprintf("%d件成功、%d件失敗", r.SuccessCount, r.ErrorCount)
}
