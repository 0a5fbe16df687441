package recorder

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"FnoSentinel/pkg/errors"
)

// maxSymbols caps how many active symbols one cycle processes.
const maxSymbols = 500

// SymbolSource lists the F&O symbols a cycle should analyze.
type SymbolSource interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// StaticSymbols is a fixed symbol list from configuration.
type StaticSymbols []string

func (s StaticSymbols) ActiveSymbols(context.Context) ([]string, error) {
	out := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, sym := range s {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
		if len(out) == maxSymbols {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "no symbols configured")
	}
	return out, nil
}

// PostgresSymbols reads active symbols from the fno_symbols table.
type PostgresSymbols struct {
	db *sqlx.DB
}

func NewPostgresSymbols(db *sqlx.DB) *PostgresSymbols {
	return &PostgresSymbols{db: db}
}

func (p *PostgresSymbols) ActiveSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	query := `SELECT symbol_name FROM fno_symbols
		WHERE is_active = TRUE
		ORDER BY symbol_name
		LIMIT $1`
	if err := p.db.SelectContext(ctx, &symbols, query, maxSymbols); err != nil {
		return nil, errors.Wrap(err, "load fno symbols")
	}
	if len(symbols) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "no active fno symbols")
	}
	return symbols, nil
}
