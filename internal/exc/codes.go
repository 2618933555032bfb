package exc

const (
	CodeUnknownFatal     = "P0000"
	CodeFileNotFound     = "P0001"
	CodePermissionDenied = "P0003"
	CodeUnexpectedEOF    = "P0005"
)

// Expansion failures. Each one is fatal for the directive it is reported
// against.
const (
	CodeSyntax                = "P0010"
	CodeDuplicateIdentifier   = "P0011"
	CodeUnequalLength         = "P0012"
	CodeUnknownParameter      = "P0013"
	CodeArityMismatch         = "P0014"
	CodeMalformedParameter    = "P0015"
	CodeUnsupportedSignature  = "P0016"
	CodeMissingValues         = "P0017"
	CodeConflictingDirectives = "P0018"
	CodeNameCollision         = "P0019"
	CodeGoParse               = "P0020"
)

const (
	CodeEOF = "_EOF_"
)
