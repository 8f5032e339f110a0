package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"anna.jansen@example.org": "an***@example.org",
		"jo@example.org":          "jo***@example.org",
		"émile@example.fr":        "ém***@example.fr",
		"no-at-sign":              "***",
		"@example.org":            "***",
	}
	for in, want := range cases {
		assert.Equal(t, want, maskEmail(in), in)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "**********78", maskPhone("+31612345678"))
	assert.Equal(t, "***", maskPhone("1234"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	got, err := parseDate("2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseDate("2026-05-04T13:45")
	require.NoError(t, err)
	assert.Equal(t, want.Add(13*time.Hour+45*time.Minute), got)

	got, err = parseDate("2026-05-04T13:45:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(want.Add(11*time.Hour+45*time.Minute)))

	_, err = parseDate("04/05/2026")
	assert.Error(t, err)

	assert.Nil(t, parseOptionalDate("  "))
	assert.Nil(t, parseOptionalDate("garbage"))
	assert.NotNil(t, parseOptionalDate("2026-05-04"))
}
