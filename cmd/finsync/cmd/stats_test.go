package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	r, err := dateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = dateRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), r.End)

	r, err = dateRange("2025-01-01", "")
	require.NoError(t, err)
	assert.True(t, r.End.IsZero(), "open end")

	r, err = dateRange("", "2025-01-31")
	require.NoError(t, err)
	assert.True(t, r.Start.IsZero(), "open start")
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), r.End)

	_, err = dateRange("01.01.2025", "")
	assert.Error(t, err)
	_, err = dateRange("2025-02-01", "2025-01-01")
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"changed": 2}))
	assert.Equal(t, "{\n  \"changed\": 2\n}\n", buf.String())
}
