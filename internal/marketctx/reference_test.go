package marketctx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReference(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	assert.Len(t, ref.Nifty50, 49)
	assert.Equal(t, "FMCG", ref.Sector("itc"))
	assert.Equal(t, "Others", ref.Sector("NOTLISTED"))
	assert.InDelta(t, 1.2, ref.SectorMultiplier("M&M"), 1e-9)
	assert.Equal(t, 1.0, ref.SectorMultiplier("NOTLISTED"))

	now := time.Date(2026, 3, 10, 11, 0, 0, 0, IST)
	p := ref.Profile("hdfcbank", now)
	assert.Equal(t, "HDFCBANK", p.Symbol)
	assert.True(t, p.Nifty50)
	assert.True(t, p.BankNifty)
	assert.True(t, p.HighFII)
	assert.Equal(t, VolatilityMedium, p.Volatility)
	assert.False(t, p.ExpiryWeek)
	assert.False(t, p.ResultsWeek)

	p = ref.Profile("TATASTEEL", now)
	assert.True(t, p.HighVolatility())
	assert.True(t, p.HighRetail)

	assert.Equal(t, VolatilityLow, ref.Profile("ITC", now).Volatility)
}

func TestLoadReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nifty50: [ABC]\nsectors:\n  Metals: [XYZ]\n"), 0o644))

	ref, err := LoadReference(path)
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, IST)
	assert.True(t, ref.Profile("ABC", now).Nifty50)
	assert.Equal(t, "Metals", ref.Profile("XYZ", now).Sector)

	_, err = LoadReference(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	ref, err = LoadReference("")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.BankNifty)
}

func TestParseReference_Invalid(t *testing.T) {
	_, err := ParseReference([]byte("nifty50: {not: [a list"))
	assert.Error(t, err)
}
