package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lending-engine/lending"
)

func testRecords() []lending.LoanRecord {
	return []lending.LoanRecord{
		{
			ID:        "0001",
			ClientID:  "30111222",
			Principal: decimal.NewFromInt(10000),
			TermCount: 12,
			Mortgage:  false,
			StartDate: lending.NewDate(2025, time.January, 15),
		},
		{
			ID:        "0002",
			ClientID:  "27999888",
			Principal: decimal.NewFromFloat(250000.50),
			TermCount: 36,
			Mortgage:  true,
			StartDate: lending.NewDate(2025, time.March, 1),
		},
	}
}

func TestStore_Loans_RoundTrip(t *testing.T) {
	store := New(t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, store.SaveLoans(ctx, testRecords()))
	loaded, err := store.LoadLoans(ctx)
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, lending.LoanID("0001"), loaded[0].ID)
	assert.True(t, loaded[0].Principal.Equal(decimal.NewFromInt(10000)))
	assert.False(t, loaded[0].Mortgage)
	assert.True(t, loaded[1].Mortgage)
	assert.True(t, loaded[1].StartDate.Equal(lending.NewDate(2025, time.March, 1)))
}

func TestStore_Payments_RoundTrip(t *testing.T) {
	store := New(t.TempDir(), nil)
	ctx := context.Background()

	payments := []lending.Payment{
		{LoanID: "0001", InstallmentNumber: 1, Amount: decimal.NewFromFloat(912.59), PaidAt: lending.NewDate(2025, time.February, 10)},
		{LoanID: "0001", InstallmentNumber: 2, Amount: decimal.NewFromFloat(87.41), PaidAt: lending.NewDate(2025, time.February, 10)},
	}
	require.NoError(t, store.SavePayments(ctx, payments))

	loaded, err := store.LoadPayments(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, loaded[0].InstallmentNumber)
	assert.True(t, loaded[0].Amount.Equal(decimal.NewFromFloat(912.59)))
	assert.True(t, loaded[1].PaidAt.Equal(lending.NewDate(2025, time.February, 10)))
}

func TestStore_MissingFiles_AreEmptyCollections(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	ctx := context.Background()

	loans, err := store.LoadLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)

	payments, err := store.LoadPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestStore_MalformedRows_AreSkipped(t *testing.T) {
	// GIVEN: A loan file with a short row, a bad amount, an unknown type
	//        and one valid row
	// WHEN: Loading
	// THEN: Only the valid row survives; bad rows never abort the load

	dir := t.TempDir()
	content := "ID_Prestamo;ID_Cliente;Monto;Cuotas;Tipo;Fecha_Inicio\n" +
		"0001;30111222;not-a-number;12;personal;2025-01-15\n" +
		"0002;27999888;5000\n" +
		"0003;27999888;5000;6;corporate;2025-01-15\n" +
		"0004;27999888;5000;6;hipotecario;2025-01-15\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loans.csv"), []byte(content), 0o644))

	store := New(dir, nil)
	loaded, err := store.LoadLoans(context.Background())
	require.NoError(t, err)

	require.Len(t, loaded, 1)
	assert.Equal(t, lending.LoanID("0004"), loaded[0].ID)
	assert.True(t, loaded[0].Mortgage)
}

func TestStore_Save_RewritesWholeFile(t *testing.T) {
	store := New(t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, store.SaveLoans(ctx, testRecords()))
	require.NoError(t, store.SaveLoans(ctx, testRecords()[:1]))

	loaded, err := store.LoadLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestStore_Save_SurfacesWriteFailures(t *testing.T) {
	// A regular file where the data directory should be makes every write
	// step fail; the error must reach the caller, not be swallowed.

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))
	store := New(filepath.Join(blocker, "data"), nil)

	err := store.SaveLoans(context.Background(), testRecords())

	assert.Error(t, err)
}

func TestStore_Save_CreatesDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := New(dir, nil)

	require.NoError(t, store.SaveLoans(context.Background(), nil))

	_, err := os.Stat(filepath.Join(dir, "loans.csv"))
	assert.NoError(t, err)
}
