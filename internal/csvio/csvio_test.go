package csvio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junnakarai/bankpocket/internal/store"
)

const csvHeader = "銀行名,支店名,支店番号,口座番号,タグ,作成日,更新日\n"

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewEngine(st), st
}

func seedTag(t *testing.T, st *store.Store, name string) *store.Tag {
	t.Helper()
	now := time.Now()
	tag := &store.Tag{
		ID:        uuid.New(),
		Name:      name,
		Color:     "#FF6B6B",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateTag(context.Background(), tag))
	return tag
}

func listAll(t *testing.T, st *store.Store) []*store.Account {
	t.Helper()
	accounts, err := st.ListAccounts(context.Background(), "", nil)
	require.NoError(t, err)
	return accounts
}

func TestImport_BasicRows(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader +
		"みずほ銀行,東京支店,001,1234567,,,\n" +
		"三井住友銀行,,002,7654321,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.False(t, result.HasErrors())
	assert.Equal(t, "2件の口座をインポートしました", result.Summary())

	accounts := listAll(t, st)
	require.Len(t, accounts, 2)
	assert.Equal(t, "みずほ銀行", accounts[0].BankName)
	assert.Equal(t, "東京支店", accounts[0].BranchName)
	assert.Equal(t, 0, accounts[0].SortOrder)
	assert.Equal(t, 1, accounts[1].SortOrder)
}

func TestImport_DuplicateWithinFile(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader +
		"みずほ銀行,東京支店,001,1234567,,,\n" +
		"みずほ銀行,大阪支店,001,1234567,,,\n" +
		"三井住友銀行,,002,7654321,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "行3: 重複する口座です", result.Errors[0])
	assert.Equal(t, "2件成功、1件失敗", result.Summary())

	assert.Len(t, listAll(t, st), 2)
}

func TestImport_DuplicateAgainstStore(t *testing.T) {
	e, st := newTestEngine(t)

	now := time.Now()
	require.NoError(t, st.CreateAccount(context.Background(), &store.Account{
		ID: uuid.New(), BankName: "みずほ銀行", BranchNumber: "001",
		AccountNumber: "1234567", CreatedAt: now, UpdatedAt: now,
	}))

	input := csvHeader + "みずほ銀行,東京支店,001,1234567,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "行2: 重複する口座です", result.Errors[0])

	assert.Len(t, listAll(t, st), 1)
}

func TestImport_MissingNumbersNeverDuplicate(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader +
		"みずほ銀行,,,,,\n" +
		"みずほ銀行,,,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Len(t, listAll(t, st), 2)
}

func TestImport_TooFewLines(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Import(context.Background(), strings.NewReader("銀行名,支店名,支店番号,口座番号"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestImport_HeaderOnly(t *testing.T) {
	e, st := newTestEngine(t)

	result, err := e.Import(context.Background(), strings.NewReader(csvHeader))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Empty(t, listAll(t, st))
}

func TestImport_ShortRow(t *testing.T) {
	e, _ := newTestEngine(t)

	input := csvHeader + "みずほ銀行,東京支店,001\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "行2: 行の形式が正しくありません", result.Errors[0])
}

func TestImport_ValidationFailureKeepsGoing(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader +
		",東京支店,001,1234567,,,\n" +
		"三井住友銀行,,002,7654321,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "行2: 銀行名を入力してください", result.Errors[0])
	assert.Len(t, listAll(t, st), 1)
}

func TestImport_TagResolution(t *testing.T) {
	e, st := newTestEngine(t)

	savings := seedTag(t, st, "貯金")
	seedTag(t, st, "仕事")

	input := csvHeader + "みずほ銀行,,001,1234567,貯金;未知のタグ;貯金,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount, "unknown tag names are skipped silently")

	accounts := listAll(t, st)
	require.Len(t, accounts, 1)
	tags, err := st.TagsForAccount(context.Background(), accounts[0].ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, savings.ID, tags[0].ID)
}

func TestImport_SortOrderContinuesAfterExisting(t *testing.T) {
	e, st := newTestEngine(t)

	now := time.Now()
	require.NoError(t, st.CreateAccount(context.Background(), &store.Account{
		ID: uuid.New(), BankName: "既存銀行", SortOrder: 4,
		CreatedAt: now, UpdatedAt: now,
	}))

	input := csvHeader +
		"みずほ銀行,,001,1234567,,,\n" +
		"三井住友銀行,,002,7654321,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	accounts := listAll(t, st)
	require.Len(t, accounts, 3)
	assert.Equal(t, 5, accounts[1].SortOrder)
	assert.Equal(t, 6, accounts[2].SortOrder)
}

func TestImport_NoCommitWhenAllRowsFail(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader +
		",支店,001,1234567,,,\n" +
		",支店,002,7654321,,,\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Empty(t, listAll(t, st))
}

func TestImport_CRLFAndBlankLines(t *testing.T) {
	e, st := newTestEngine(t)

	input := "銀行名,支店名,支店番号,口座番号,タグ,作成日,更新日\r\n" +
		"みずほ銀行,,001,1234567,,,\r\n" +
		"\r\n" +
		"三井住友銀行,,002,7654321,,,\r\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Len(t, listAll(t, st), 2)
}

func TestImport_QuotedFields(t *testing.T) {
	e, st := newTestEngine(t)

	input := csvHeader + `"みずほ,銀行","""東京""支店",001,1234567,,,` + "\n"

	result, err := e.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	accounts := listAll(t, st)
	require.Len(t, accounts, 1)
	assert.Equal(t, "みずほ,銀行", accounts[0].BankName)
	assert.Equal(t, `"東京"支店`, accounts[0].BranchName)
}

func TestExport_HeaderAndRows(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	tag := seedTag(t, st, "貯金")
	work := seedTag(t, st, "仕事")

	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	a := &store.Account{
		ID: uuid.New(), BankName: "みずほ銀行", BranchName: "東京支店",
		BranchNumber: "001", AccountNumber: "1234567",
		CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, st.CreateAccount(ctx, a))
	for _, tg := range []*store.Tag{tag, work} {
		require.NoError(t, st.CreateAssociation(ctx, &store.Association{
			ID: uuid.New(), AccountID: a.ID, TagID: tg.ID, CreatedAt: created,
		}))
	}

	var buf bytes.Buffer
	require.NoError(t, e.Export(ctx, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "銀行名,支店名,支店番号,口座番号,タグ,作成日,更新日", lines[0])
	assert.Equal(t, "みずほ銀行,東京支店,001,1234567,仕事;貯金,2026-03-01 09:30:00,2026-03-01 09:30:00", lines[1])
}

func TestExport_QuotesSpecialFields(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.CreateAccount(ctx, &store.Account{
		ID: uuid.New(), BankName: `みずほ,銀行`, BranchName: `"東京"支店`,
		CreatedAt: now, UpdatedAt: now,
	}))

	var buf bytes.Buffer
	require.NoError(t, e.Export(ctx, &buf))

	assert.Contains(t, buf.String(), `"みずほ,銀行"`)
	assert.Contains(t, buf.String(), `"""東京""支店"`)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src, srcStore := newTestEngine(t)
	ctx := context.Background()

	tag := seedTag(t, srcStore, "貯金")
	now := time.Now()
	a := &store.Account{
		ID: uuid.New(), BankName: "みずほ銀行", BranchName: "東京支店",
		BranchNumber: "001", AccountNumber: "1234567",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, srcStore.CreateAccount(ctx, a))
	require.NoError(t, srcStore.CreateAssociation(ctx, &store.Association{
		ID: uuid.New(), AccountID: a.ID, TagID: tag.ID, CreatedAt: now,
	}))

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	dst, dstStore := newTestEngine(t)
	seedTag(t, dstStore, "貯金")

	result, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)

	imported := listAll(t, dstStore)
	require.Len(t, imported, 1)
	assert.Equal(t, a.BankName, imported[0].BankName)
	assert.Equal(t, a.BranchName, imported[0].BranchName)
	assert.Equal(t, a.BranchNumber, imported[0].BranchNumber)
	assert.Equal(t, a.AccountNumber, imported[0].AccountNumber)

	tags, err := dstStore.TagsForAccount(ctx, imported[0].ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "貯金", tags[0].Name)
}

func TestExportToFile_CreatesAndNames(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.CreateAccount(ctx, &store.Account{
		ID: uuid.New(), BankName: "みずほ銀行",
		CreatedAt: now, UpdatedAt: now,
	}))

	path, err := e.ExportToFile(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	assert.Equal(t, ExportFileName, filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "みずほ銀行")
}
