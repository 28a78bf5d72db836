/*
Package csvfile persists loan records and payment events as
semicolon-separated CSV files.

FILE LAYOUT:
  loans.csv:    ID_Prestamo;ID_Cliente;Monto;Cuotas;Tipo;Fecha_Inicio
  payments.csv: ID_Prestamo;Numero_Cuota;Monto_Pagado;Fecha_Pago

  One header line, one row per record. Tipo is "hipotecario" or
  "personal". Dates are ISO-8601 calendar dates. Amounts are plain
  decimal strings.

SEMANTICS:
  - A missing file is an empty collection, not an error (first run).
  - Every save rewrites the whole file.
  - Malformed rows are logged and skipped on load; a bad row never
    corrupts the in-memory state or aborts the rest of the file.
  - The parent directory is created on first write.
*/
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/lending-engine/lending"
)

const (
	loanFile    = "loans.csv"
	paymentFile = "payments.csv"

	loanHeader    = "ID_Prestamo;ID_Cliente;Monto;Cuotas;Tipo;Fecha_Inicio"
	paymentHeader = "ID_Prestamo;Numero_Cuota;Monto_Pagado;Fecha_Pago"

	typeMortgage = "hipotecario"
	typePersonal = "personal"
)

// Store implements lending.LoanStore and lending.PaymentStore over two
// CSV files in a data directory.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// =============================================================================
// LOAN RECORDS
// =============================================================================

func (s *Store) LoadLoans(_ context.Context) ([]lending.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(filepath.Join(s.dir, loanFile))
	if err != nil {
		return nil, err
	}

	var records []lending.LoanRecord
	for _, row := range rows {
		rec, err := parseLoanRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed loan row",
				zap.Strings("row", row), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) SaveLoans(_ context.Context, records []lending.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		kind := typePersonal
		if rec.Mortgage {
			kind = typeMortgage
		}
		rows = append(rows, []string{
			string(rec.ID),
			string(rec.ClientID),
			rec.Principal.String(),
			strconv.Itoa(rec.TermCount),
			kind,
			rec.StartDate.String(),
		})
	}
	return s.writeRows(filepath.Join(s.dir, loanFile), loanHeader, rows)
}

func parseLoanRow(row []string) (lending.LoanRecord, error) {
	if len(row) != 6 {
		return lending.LoanRecord{}, fmt.Errorf("expected 6 fields, got %d", len(row))
	}
	principal, err := decimal.NewFromString(row[2])
	if err != nil {
		return lending.LoanRecord{}, fmt.Errorf("principal: %w", err)
	}
	termCount, err := strconv.Atoi(row[3])
	if err != nil {
		return lending.LoanRecord{}, fmt.Errorf("term count: %w", err)
	}
	var mortgage bool
	switch row[4] {
	case typeMortgage:
		mortgage = true
	case typePersonal:
		mortgage = false
	default:
		return lending.LoanRecord{}, fmt.Errorf("unknown loan type %q", row[4])
	}
	start, err := lending.ParseDate(row[5])
	if err != nil {
		return lending.LoanRecord{}, fmt.Errorf("start date: %w", err)
	}
	return lending.LoanRecord{
		ID:        lending.LoanID(row[0]),
		ClientID:  lending.ClientID(row[1]),
		Principal: principal,
		TermCount: termCount,
		Mortgage:  mortgage,
		StartDate: start,
	}, nil
}

// =============================================================================
// PAYMENT EVENTS
// =============================================================================

func (s *Store) LoadPayments(_ context.Context) ([]lending.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(filepath.Join(s.dir, paymentFile))
	if err != nil {
		return nil, err
	}

	var payments []lending.Payment
	for _, row := range rows {
		p, err := parsePaymentRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed payment row",
				zap.Strings("row", row), zap.Error(err))
			continue
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (s *Store) SavePayments(_ context.Context, payments []lending.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			string(p.LoanID),
			strconv.Itoa(p.InstallmentNumber),
			p.Amount.String(),
			p.PaidAt.String(),
		})
	}
	return s.writeRows(filepath.Join(s.dir, paymentFile), paymentHeader, rows)
}

func parsePaymentRow(row []string) (lending.Payment, error) {
	if len(row) != 4 {
		return lending.Payment{}, fmt.Errorf("expected 4 fields, got %d", len(row))
	}
	number, err := strconv.Atoi(row[1])
	if err != nil {
		return lending.Payment{}, fmt.Errorf("installment number: %w", err)
	}
	amount, err := decimal.NewFromString(row[2])
	if err != nil {
		return lending.Payment{}, fmt.Errorf("amount: %w", err)
	}
	paidAt, err := lending.ParseDate(row[3])
	if err != nil {
		return lending.Payment{}, fmt.Errorf("payment date: %w", err)
	}
	return lending.Payment{
		LoanID:            lending.LoanID(row[0]),
		InstallmentNumber: number,
		Amount:            amount,
		PaidAt:            paidAt,
	}, nil
}

// =============================================================================
// FILE HELPERS
// =============================================================================

// readRows returns the data rows of a file, header excluded. A missing
// file yields no rows.
func (s *Store) readRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 // row shape is validated per record

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("skipping unreadable row", zap.String("file", path), zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) writeRows(path, header string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if _, err := fmt.Fprintln(file, header); err != nil {
		file.Close()
		return err
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	// Close flushes to disk; a save is only durable once it succeeds.
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
