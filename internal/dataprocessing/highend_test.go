package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hvexport/internal/errors"
)

func TestTransformHighend(t *testing.T) {
	text := "\"No.\",\"time\",\"LDEV-00\",\"LDEV-01\"\n" +
		"\"1\",\"2024/01/01 00:01\",\"10\",\"11\"\n" +
		"\"2\",\"2024/01/01 00:02\",\"12\"\n"

	table, err := TransformHighend(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, ShapeWide, table.Shape)
	assert.Equal(t, "time", table.IndexName)
	assert.Equal(t, []Column{{Name: "LDEV-00"}, {Name: "LDEV-01"}}, table.Columns)
	assert.Equal(t, []string{"2024/01/01 00:01", "2024/01/01 00:02"}, table.Index)
	assert.Equal(t, [][]string{{"10", "11"}, {"12", ""}}, table.Rows)
	assert.Equal(t, 1, table.HeaderRows())
	assert.True(t, table.Charted())
}

func TestTransformHighend_MergedFragmentColumns(t *testing.T) {
	// Output of the reconstruction scenario: header A, row with A=10 and A=20.
	text := "\"No.\",time,A,A\n\"1\",09:00,10,20"

	table, err := TransformHighend(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, table.Index)
	assert.Equal(t, [][]string{{"10", "20"}}, table.Rows)
}

func TestTransformHighend_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "header too narrow", text: "\"No.\"\n\"1\""},
		{name: "row wider than header", text: "\"No.\",time,A\n\"1\",t,1,2"},
		{name: "row without timestamp", text: "\"No.\",time,A\n\"1\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransformHighend(context.Background(), tt.text)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrTypeTransform), "got %v", err)
		})
	}
}
