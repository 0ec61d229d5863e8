package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common Error Codes
const (
	ErrCodeInternal   ErrorCode = "COMMON_001"
	ErrCodeBadRequest ErrorCode = "COMMON_002"
	ErrCodeNotFound   ErrorCode = "COMMON_005"
	ErrCodeValidation ErrorCode = "COMMON_010"
)

// Compound Module Error Codes
const (
	ErrCodePropertyInvalid     ErrorCode = "CMP_001"
	ErrCodeCompoundNotFound    ErrorCode = "CMP_002"
	ErrCodeCompoundKeyMismatch ErrorCode = "CMP_003"
	ErrCodeTableColumnMissing  ErrorCode = "CMP_004"
	ErrCodeTableShapeInvalid   ErrorCode = "CMP_005"
)

// Rule Module Error Codes
const (
	ErrCodeCriterionColumnMissing ErrorCode = "RUL_001"
	ErrCodeCriterionNotNumeric    ErrorCode = "RUL_002"
	ErrCodeRuleInvalid            ErrorCode = "RUL_003"
)

// Data Source Error Codes
const (
	ErrCodeProviderUnavailable ErrorCode = "SRC_001"
	ErrCodeProviderRateLimited ErrorCode = "SRC_002"
	ErrCodeProviderBadStatus   ErrorCode = "SRC_003"
	ErrCodeProviderParseError  ErrorCode = "SRC_004"
)

// Export / Storage Error Codes
const (
	ErrCodeExportFailed  ErrorCode = "EXP_001"
	ErrCodeImportFailed  ErrorCode = "EXP_002"
	ErrCodeStorageFailed ErrorCode = "STO_001"
)

// CLI Error Codes
const (
	ErrCodeUsage         ErrorCode = "CLI_001"
	ErrCodeInputNotFound ErrorCode = "CLI_002"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ErrorCodeExitStatus maps ErrorCodes to process exit statuses.  Codes absent
// from the map exit with ExitFailure.
var ErrorCodeExitStatus = map[ErrorCode]int{
	CodeOK:               ExitOK,
	ErrCodeUsage:         ExitUsage,
	ErrCodeInputNotFound: ExitFailure,
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if status, ok := ErrorCodeExitStatus[GetCode(err)]; ok {
		return status
	}
	return ExitFailure
}
