package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchSentinels(t *testing.T) {
	fe := &FetchError{Symbol: "CME_MINI:ES1!", Status: 503, Body: "busy"}
	assert.ErrorIs(t, fmt.Errorf("daily: %w", fe), ErrFetch)
	assert.Contains(t, fe.Error(), "status 503")

	ir := &InvalidRangeError{High: 100, Low: 0, Reason: "low is zero"}
	assert.ErrorIs(t, ir, ErrInvalidRange)
	assert.NotErrorIs(t, ir, ErrFetch)

	ioe := &IOError{Op: "write", Path: "/tmp/x.csv", Err: os.ErrPermission}
	assert.ErrorIs(t, ioe, ErrIO)
	assert.ErrorIs(t, ioe, os.ErrPermission)

	nd := NoData("premarket for %s", "ES")
	assert.ErrorIs(t, nd, ErrNoData)
	assert.Equal(t, "premarket for ES: no data", nd.Error())
}

func TestFetchErrorWithoutStatus(t *testing.T) {
	fe := &FetchError{Symbol: "NQ", Err: errors.New("connection refused")}
	assert.Equal(t, "fetch NQ: connection refused", fe.Error())
}
