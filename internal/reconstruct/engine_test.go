package reconstruct

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hvexport/internal/errors"
)

const testPreamble = `"Export Tool"
"Serial number : 412345"
"(From: 2024/01/01 00:00 To: 2024/01/01 01:00)"
"Sampling rate : 1"
""
"LDEV_IOPS"
`

func export(lines ...string) string {
	return testPreamble + strings.Join(lines, "\n") + "\n"
}

func reconstruct(t *testing.T, input string) *Result {
	t.Helper()
	res, err := NewEngine(nil).Reconstruct(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	return res
}

func TestReconstruct_FragmentScenario(t *testing.T) {
	res := reconstruct(t, export(
		`"No.",time,A`,
		`"1",09:00,10`,
		`"1",09:00,20`,
	))

	records := res.Records()
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, []string{`"No."`, "time", "A"}, records[0].Fields)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, []string{`"1"`, "09:00", "10", "20"}, records[1].Fields)
	assert.Equal(t, "\"No.\",time,A\n\"1\",09:00,10,20", res.Text())
	assert.Equal(t, 2, res.Stats.Openers)
	assert.Equal(t, 1, res.Stats.Fragments)
}

func TestReconstruct_WellFormedInputIsUnchanged(t *testing.T) {
	body := []string{
		`"No.","time","LDEV-00","LDEV-01"`,
		`"1","2024/01/01 00:01","10","11"`,
		`"2","2024/01/01 00:02","12","13"`,
		`"3","2024/01/01 00:03","14","15"`,
	}
	res := reconstruct(t, export(body...))

	assert.Equal(t, strings.Join(body, "\n"), res.Text())
	for i, rec := range res.Records() {
		want := strings.Split(body[i], ",")
		assert.Equal(t, want[1:], rec.Fields[1:], "row %d without index column", i)
	}
	assert.Zero(t, res.Stats.Fragments)
}

func TestReconstruct_MergesInterleavedFragmentsInArrivalOrder(t *testing.T) {
	res := reconstruct(t, export(
		`"No.",time,A,B`,
		`"1",t1,a1,b1`,
		`"2",t2,a2,b2`,
		`"No.",time,C`,
		`"2",t2,c2`,
		`"1",t1,c1`,
		`"No.",time,D`,
		`"1",t1,d1`,
		`"2",t2,d2`,
	))

	assert.Equal(t, strings.Join([]string{
		`"No.",time,A,B,C,D`,
		`"1",t1,a1,b1,c1,d1`,
		`"2",t2,a2,b2,c2,d2`,
	}, "\n"), res.Text())
}

func TestReconstruct_OutOfOrderIndicesLeaveNoGaps(t *testing.T) {
	res := reconstruct(t, export(
		`"No.",time,A`,
		`"5",t5,a5`,
		`"2",t2,a2`,
		`"5",t5,b5`,
	))

	records := res.Records()
	require.Len(t, records, 3)
	assert.Equal(t, []int{0, 2, 5}, []int{records[0].Index, records[1].Index, records[2].Index})
	assert.Equal(t, []string{`"5"`, "t5", "a5", "b5"}, records[2].Fields)
	assert.Equal(t, 5, res.Stats.MaxIndex)
	assert.NotContains(t, res.Text(), "\n\n")
}

func TestReconstruct_FirstArrivalIsOpener(t *testing.T) {
	// The later-timestamped line arrives first and therefore becomes the opener.
	res := reconstruct(t, export(
		`"No.",time,A`,
		`"1",09:05,late`,
		`"1",09:00,early`,
	))

	assert.Equal(t, []string{`"1"`, "09:05", "late", "early"}, res.Records()[1].Fields)
}

func TestReconstruct_QuotedAndPaddedIndex(t *testing.T) {
	res := reconstruct(t, export(
		`" No. ",time,A`,
		`" 1",t,1`,
		"\"1\",t,2\r",
	))

	assert.Equal(t, []string{`" 1"`, "t", "1", "2"}, res.Records()[1].Fields)
}

func TestReconstruct_SkipsBlankLines(t *testing.T) {
	res := reconstruct(t, export(`"No.",time,A`, ``, `"1",t,1`, `   `))
	assert.Len(t, res.Records(), 2)
	assert.Equal(t, 2, res.Stats.LinesRead)
}

func TestReconstruct_ShortFileYieldsEmptyResult(t *testing.T) {
	res := reconstruct(t, "a\nb\nc\n")
	assert.Empty(t, res.Records())
	assert.Equal(t, "", res.Text())
}

func TestReconstruct_MalformedIndex(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "text", line: `"abc",t,1`},
		{name: "float", line: `"1.5",t,1`},
		{name: "negative", line: `"-3",t,1`},
		{name: "empty", line: `,t,1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(nil).Reconstruct(context.Background(),
				strings.NewReader(export(`"No.",time,A`, tt.line)))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrTypeMalformedIndex))
			assert.Equal(t, apperrors.StageReconstruct, apperrors.StageOf(err))
		})
	}
}

func TestReconstruct_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Reconstruct(ctx, strings.NewReader(export(`"No.",time,A`)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLine(t *testing.T) {
	line, err := ParseLine(`"No.","time","A"`, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, line.Index)
	assert.Len(t, line.Fields, 3)

	line, err = ParseLine(`12,t`, 8)
	require.NoError(t, err)
	assert.Equal(t, 12, line.Index)

	_, err = ParseLine(`x`, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 9")
}
