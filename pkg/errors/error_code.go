package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDecision      ErrorCode = 102
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidPosition      ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidPeriod        ErrorCode = 107
	ErrCodeDegenerateInput      ErrorCode = 108
	ErrCodeConfigurationOutOfRange ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound            ErrorCode = 200
	ErrCodeExternalDataUnavailable ErrorCode = 201
	ErrCodeQueryFailed             ErrorCode = 202
	ErrCodeNoDataFound             ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400

	// Position/risk errors (500-599)
	ErrCodePositionNotFound  ErrorCode = 500
	ErrCodePositionLimit     ErrorCode = 501
	ErrCodeMarketDataMissing ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoDatasource ErrorCode = 603
	ErrCodeBacktestNoDataPaths  ErrorCode = 604
)
