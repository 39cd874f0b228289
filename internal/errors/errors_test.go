package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	err := NewParseError("barge", StageDateColumn, "best %d hits, need %d", 3, 5)

	assert.Contains(t, err.Error(), "barge")
	assert.Contains(t, err.Error(), "date_column")
	assert.Contains(t, err.Error(), "best 3 hits, need 5")
	assert.True(t, IsParseError(err))

	pe, ok := AsParseError(err)
	require.True(t, ok)
	assert.Equal(t, "barge", pe.Signal)
	assert.Equal(t, StageDateColumn, pe.Stage)
}

func TestParseError_Wrapped(t *testing.T) {
	inner := NewParseError("rail", StageWeekColumns, "no week date columns")
	wrapped := fmt.Errorf("rail ingest: %w", inner)

	assert.True(t, IsParseError(wrapped))
	pe, ok := AsParseError(wrapped)
	require.True(t, ok)
	assert.Equal(t, StageWeekColumns, pe.Stage)
}

func TestIsParseError_OtherError(t *testing.T) {
	assert.False(t, IsParseError(errors.New("connection refused")))
	_, ok := AsParseError(errors.New("boom"))
	assert.False(t, ok)
}
