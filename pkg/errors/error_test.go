package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeInvalidParameter, "bad parameter")
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("[100] bad parameter", err.Error())
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeDataNotFound, "no data for %s", "BTCUSDT")
	suite.Equal("[200] no data for BTCUSDT", err.Error())
}

func (suite *ErrorTestSuite) TestWrapUnwrap() {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeQueryFailed, "failed to execute query", cause)

	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Contains(err.Error(), "disk full")
	suite.Equal(cause, stderrors.Unwrap(err))
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"typed error", New(ErrCodeDegenerateInput, "zero balance"), ErrCodeDegenerateInput},
		{"wrapped typed error", fmt.Errorf("outer: %w", New(ErrCodeInsufficientData, "short window")), ErrCodeInsufficientData},
		{"plain error", stderrors.New("plain"), ErrCodeUnknown},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCode(tc.err))
			suite.True(HasCode(tc.err, tc.expected))
		})
	}
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(200, 50, "BTCUSDT", "need %d candles, have %d", 200, 50)
	suite.Equal(200, err.Required)
	suite.Equal(50, err.Actual)
	suite.Equal("need 200 candles, have 50", err.Error())

	wrapped := fmt.Errorf("snapshot: %w", err)
	suite.True(IsInsufficientDataError(wrapped))
	suite.False(IsInsufficientDataError(stderrors.New("other")))
}
