// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package op

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	start := time.Now()
	end := start.Add(5 * time.Millisecond)
	result := map[string]any{"output": "/tmp/redact_doc.docx"}
	params := map[string]any{"path": "/tmp/doc.docx"}

	o := New("doc.docx", result, Success, nil, params, start, end)

	assert.Equal(t, "doc.docx", o.Identifier)
	assert.Equal(t, result, o.Result)
	assert.Equal(t, Success, o.Status)
	assert.NoError(t, o.Error)
	assert.Empty(t, o.ErrString)
	assert.Equal(t, params, o.Params)
	assert.Equal(t, start, o.Start)
	assert.Equal(t, end, o.End)
}

func TestNewFormatsError(t *testing.T) {
	errFake := errors.New("uh oh a fake error")

	o := New("doc.pdf", nil, Fail, errFake, nil, time.Now(), time.Now())

	assert.Equal(t, errFake, o.Error)
	assert.Equal(t, errFake.Error(), o.ErrString)
	assert.Equal(t, Fail, o.Status)
}

func TestNewCancel(t *testing.T) {
	start := time.Now()
	errFake := errors.New("context canceled")

	o := NewCancel("doc.docx", errFake, map[string]any{"path": "doc.docx"}, start)

	assert.Equal(t, Canceled, o.Status)
	assert.Equal(t, errFake, o.Error)
	assert.Equal(t, start, o.Start)
	assert.False(t, o.End.IsZero())
}

func TestNewTimeout(t *testing.T) {
	start := time.Now()
	errFake := errors.New("context deadline exceeded")

	o := NewTimeout("doc.pdf", errFake, nil, start)

	assert.Equal(t, Timeout, o.Status)
	assert.Equal(t, errFake, o.Error)
	assert.Equal(t, start, o.Start)
	assert.False(t, o.End.IsZero())
}

func Test_StatusCounts(t *testing.T) {
	testTable := []struct {
		desc   string
		ops    []Op
		expect map[Status]int
	}{
		{
			desc: "Statuses sums statuses",
			ops: []Op{
				{Status: Success},
				{Status: Unknown},
				{Status: Success},
				{Status: Fail},
				{Status: Success},
			},
			expect: map[Status]int{
				Success: 3,
				Unknown: 1,
				Fail:    1,
			},
		},
		{
			desc: "Fallback and skip count separately from success",
			ops: []Op{
				{Status: Success},
				{Status: Fallback},
				{Status: Fallback},
				{Status: Skip},
			},
			expect: map[Status]int{
				Success:  1,
				Fallback: 2,
				Skip:     1,
			},
		},
		{
			desc: "returns an error if a op doesn't have a status",
			ops: []Op{
				{Status: Unknown},
				{Status: Success},
				{Status: ""},
				{Status: Success},
				{Status: Fail},
				{Status: Success},
			},
			expect: nil,
		},
	}

	for _, tc := range testTable {
		statuses, err := StatusCounts(tc.ops)
		assert.Equal(t, tc.expect, statuses, tc.desc)
		if tc.expect == nil {
			assert.Error(t, err)
			break
		}
		assert.NoError(t, err)
	}
}
