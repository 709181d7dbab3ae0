package core

// # Diagnostic Codes
//
// Every failure the engine reports carries a stable code so operators can grep
// run logs and correlate a skipped file with its cause. No code is fatal to a
// run: the file or entity type is skipped and ingestion continues.
//
// # Classification (CLS001)
//
//	CLS001 - Filename does not follow <source>_<table>.csv or names no known table
//	         Action: Rename the export or remove it from the data directory
//
// # Resolution (RES001-RES003)
//
//	RES001 - Lines or Plots export missing for the entity type
//	         Action: Re-run the extractor; spatial context is required for keys
//	RES002 - No header/detail, stack/trap, box/stack/collection or pit/horizon files
//	         Action: Check that every structural table of the method was exported
//	RES003 - Entity type has no registered configuration
//	         Action: Register the entity in internal/core/entities
//
// # Joins (JOIN001-JOIN002)
//
//	JOIN001 - Rows without a matching PK source row; key left absent
//	JOIN002 - Join column absent from a staged table or PK source
//	KEY001  - Staged table still has no PrimaryKey column after propagation
//
// # Loading (LOAD001)
//
//	LOAD001 - File unreadable, empty, or not valid CSV
//
// # Sink (SINK001-SINK003)
//
//	SINK001 - Database unreachable
//	SINK002 - Write timed out
//	SINK003 - Write failed
//
// # Default (ERR000)
//
//	ERR000 - Unexpected error; see the wrapped message in the log line

import (
	"errors"
	"strings"
)

// Sentinel errors. Wrap them with fmt.Errorf("...: %w", ...) so Code can
// classify the failure.
var (
	ErrUnclassifiable        = errors.New("unclassifiable filename")
	ErrMissingSpatialContext = errors.New("missing spatial context")
	ErrNoJoinPattern         = errors.New("no join pattern applies")
	ErrUnsupportedEntity     = errors.New("unsupported entity type")
	ErrMissingJoinColumn     = errors.New("missing join column")
	ErrLoad                  = errors.New("load failed")
)

// Diagnostic describes a failure class for log output.
type Diagnostic struct {
	Code    string
	Message string
	Action  string
}

type sentinelDiagnostic struct {
	err  error
	diag Diagnostic
}

var sentinelDiagnostics = []sentinelDiagnostic{
	{ErrUnclassifiable, Diagnostic{"CLS001", "Filename is not a recognized DIMA table", "Rename the export or remove it from the data directory"}},
	{ErrMissingSpatialContext, Diagnostic{"RES001", "Lines or Plots export is missing", "Re-run the extractor; spatial context is required for keys"}},
	{ErrNoJoinPattern, Diagnostic{"RES002", "No structural join pattern matched the resolved files", "Check that every structural table of the method was exported"}},
	{ErrUnsupportedEntity, Diagnostic{"RES003", "Entity type is not configured", "Register the entity configuration"}},
	{ErrMissingJoinColumn, Diagnostic{"JOIN002", "Join column is absent", "Check the export headers against the entity configuration"}},
	{ErrLoad, Diagnostic{"LOAD001", "File could not be loaded", "Check the file is a readable CSV export"}},
}

// errorPatterns classify errors from collaborators (database, docker) that do
// not wrap a sentinel. Matched case-insensitively, first match wins.
var errorPatterns = []struct {
	pattern string
	diag    Diagnostic
}{
	{"connection refused", Diagnostic{"SINK001", "Unable to connect to database", "Check DATABASE_URL and that the server is running"}},
	{"no such host", Diagnostic{"SINK001", "Unable to connect to database", "Check DATABASE_URL"}},
	{"deadline exceeded", Diagnostic{"SINK002", "Write timed out", "Retry the run or raise the timeout"}},
	{"timeout", Diagnostic{"SINK002", "Write timed out", "Retry the run or raise the timeout"}},
	{"sqlstate", Diagnostic{"SINK003", "Database rejected the write", "See the wrapped database error"}},
}

var defaultDiagnostic = Diagnostic{
	Code:    "ERR000",
	Message: "An unexpected error occurred",
	Action:  "See the wrapped message in the log line",
}

// Diagnose maps an error to its diagnostic. A nil error yields the zero value.
func Diagnose(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}
	for _, sd := range sentinelDiagnostics {
		if errors.Is(err, sd.err) {
			return sd.diag
		}
	}
	msg := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(msg, ep.pattern) {
			return ep.diag
		}
	}
	return defaultDiagnostic
}

// Code returns the diagnostic code for err.
func Code(err error) string {
	return Diagnose(err).Code
}
