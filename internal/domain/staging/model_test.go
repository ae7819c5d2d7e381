package staging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryValid(t *testing.T) {
	t.Parallel()

	for _, c := range AllCategories {
		require.True(t, c.Valid(), "category %s", c)
	}
	require.False(t, Category("").Valid())
	require.False(t, Category("players").Valid())
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "inserted", OutcomeInserted.String())
	require.Equal(t, "updated", OutcomeUpdated.String())
	require.Equal(t, "unchanged", OutcomeUnchanged.String())
	require.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestPayloadForReturnsCategoryType(t *testing.T) {
	t.Parallel()

	p, err := PayloadFor(CategoryPlayerLicenses)
	require.NoError(t, err)
	require.IsType(t, &LicensePayload{}, p)

	p, err = PayloadFor(CategoryClasses)
	require.NoError(t, err)
	require.IsType(t, &ClassPayload{}, p)

	p, err = PayloadFor(CategoryEntries)
	require.NoError(t, err)
	require.IsType(t, &EntryPayload{}, p)

	p, err = PayloadFor(CategoryMatches)
	require.NoError(t, err)
	require.IsType(t, &MatchPayload{}, p)

	_, err = PayloadFor(Category("nope"))
	require.Error(t, err)
}
