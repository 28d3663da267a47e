package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadRecordsErrorAggregates(t *testing.T) {
	e := &BadRecordsError{
		Missing: map[string]error{
			"1558583991060": &FieldMissingError{RecordName: "1558583991060", Fields: []string{"borealis_git_hash"}},
		},
		Extra: map[string]error{
			"1558583994062": &ExtraFieldError{RecordName: "1558583994062", Fields: []string{"bogus"}},
		},
		Mismatch: map[string]error{},
	}

	assert.False(t, e.Empty())
	msg := e.Error()
	assert.Contains(t, msg, "2 bad records")
	assert.Contains(t, msg, "borealis_git_hash")
	assert.Contains(t, msg, "bogus")
}

func TestBadRecordsErrorEmpty(t *testing.T) {
	e := &BadRecordsError{}
	assert.True(t, e.Empty())
}

func TestRestructureErrorUnwrap(t *testing.T) {
	cause := errors.New("short read")
	e := &RestructureError{Op: "site to array", Err: cause}
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "site to array")
}

func TestErrorsMatchWithAs(t *testing.T) {
	var err error = fmt.Errorf("reading file: %w",
		&UnsupportedVersionError{Version: "v0.1", Supported: []string{"v0.4", "v0.5", "v0.6"}})

	var uve *UnsupportedVersionError
	assert.True(t, errors.As(err, &uve))
	assert.Equal(t, "v0.1", uve.Version)
	assert.Contains(t, uve.Error(), "v0.5")
}

func TestTypeMismatchErrorSortsFields(t *testing.T) {
	e := &TypeMismatchError{
		RecordName: "r",
		Mismatches: map[string]string{
			"zfield": "expected float32, got float64",
			"afield": "expected uint32, got int64",
		},
	}
	msg := e.Error()
	assert.Less(t, strings.Index(msg, "afield"), strings.Index(msg, "zfield"))
}
