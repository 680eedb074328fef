package provdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLookupUnknownPLMNIsEmpty(t *testing.T) {
	db := openTestDB(t)

	cands, err := db.LookupPLMN("310", "410")
	require.NoError(t, err)
	require.Empty(t, cands)
}

func TestLookupReturnsInsertionOrder(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Add("310", "410", "AT&T"))
	require.NoError(t, db.Add("310", "410", "AT&T Wireless"))
	require.NoError(t, db.Add("234", "15", "Vodafone UK"))

	cands, err := db.LookupPLMN("310", "410")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "AT&T", cands[0].Name)
	require.Equal(t, "AT&T Wireless", cands[1].Name)

	cands, err = db.LookupPLMN("234", "15")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Vodafone UK", cands[0].Name)
}

func TestTwoDigitAndThreeDigitMNCAreDistinct(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Add("310", "41", "Short"))
	require.NoError(t, db.Add("310", "410", "Long"))

	cands, err := db.LookupPLMN("310", "41")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Short", cands[0].Name)
}
