// Package core provides the business logic for bankpocket: account and
// tag management, tag associations, manual ordering, and the admission
// checks shared with CSV import. It has no HTTP dependencies and can be
// driven by any frontend.
package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field length limits, counted in runes after trimming.
const (
	MaxBankNameLen   = 50
	MaxBranchNameLen = 50
	MaxTagNameLen    = 30
	MaxSearchLen     = 100
)

// Pre-compiled patterns for format validation.
var (
	branchNumberPattern  = regexp.MustCompile(`^[0-9]{3}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9]{7}$`)
	colorPattern         = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// ValidationError is one violated admission rule. The set of values is
// closed; callers match with errors.Is against the Err* variables below.
// Message carries the user-facing text shown in the app.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrBankNameRequired      = &ValidationError{"bank_name_required", "銀行名を入力してください"}
	ErrBankNameTooLong       = &ValidationError{"bank_name_too_long", "銀行名は50文字以内で入力してください"}
	ErrBranchNameTooLong     = &ValidationError{"branch_name_too_long", "支店名は50文字以内で入力してください"}
	ErrBranchNumberFormat    = &ValidationError{"branch_number_invalid_format", "支店番号は3桁の数字で入力してください"}
	ErrBranchNumberRange     = &ValidationError{"branch_number_range", "支店番号は001-999の範囲で入力してください"}
	ErrAccountNumberFormat   = &ValidationError{"account_number_invalid_format", "口座番号は7桁の数字で入力してください"}
	ErrTagNameRequired       = &ValidationError{"tag_name_required", "タグ名を入力してください"}
	ErrTagNameTooLong        = &ValidationError{"tag_name_too_long", "タグ名は30文字以内で入力してください"}
	ErrTagColorInvalidFormat = &ValidationError{"tag_color_invalid_format", "色の形式が正しくありません（#RRGGBB形式で入力してください）"}
	ErrDuplicateAccount      = &ValidationError{"duplicate_account", "同じ銀行・支店・口座番号の組み合わせは既に登録されています"}
	ErrDuplicateTag          = &ValidationError{"duplicate_tag", "同じ名前のタグが既に存在します"}
	ErrSearchQueryTooLong    = &ValidationError{"search_query_too_long", "検索文字列が長すぎます（100文字以内）"}
)

// ValidateAccount checks account fields against the admission rules.
// Bank name is required; the other fields are optional but must match
// their formats when present. Values are trimmed before checking and the
// first failing rule wins: required, then length, then format, then range.
func ValidateAccount(bankName, branchName, branchNumber, accountNumber string) error {
	bank := strings.TrimSpace(bankName)
	if bank == "" {
		return ErrBankNameRequired
	}
	if utf8.RuneCountInString(bank) > MaxBankNameLen {
		return ErrBankNameTooLong
	}

	if branch := strings.TrimSpace(branchName); branch != "" {
		if utf8.RuneCountInString(branch) > MaxBranchNameLen {
			return ErrBranchNameTooLong
		}
	}

	if num := strings.TrimSpace(branchNumber); num != "" {
		if !branchNumberPattern.MatchString(num) {
			return ErrBranchNumberFormat
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 || n > 999 {
			return ErrBranchNumberRange
		}
	}

	if num := strings.TrimSpace(accountNumber); num != "" {
		if !accountNumberPattern.MatchString(num) {
			return ErrAccountNumberFormat
		}
	}

	return nil
}

// ValidateTag checks tag name and color against the admission rules.
func ValidateTag(name, color string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrTagNameRequired
	}
	if utf8.RuneCountInString(trimmed) > MaxTagNameLen {
		return ErrTagNameTooLong
	}
	if !ValidateColor(color) {
		return ErrTagColorInvalidFormat
	}
	return nil
}

// ValidateColor reports whether color is a #RRGGBB hex string.
// Hex digits are accepted in either case.
func ValidateColor(color string) bool {
	return colorPattern.MatchString(strings.TrimSpace(color))
}
