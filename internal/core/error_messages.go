package core

// error_messages.go maps technical errors to user-facing messages with a
// code that can be quoted to support.
//
//	EMP001  - Employee not found          ("employee not found")
//	IMP002  - Missing CSV column          ("missing required column")
//	IMP003  - CSV without data rows       ("no data rows")
//	IMP004  - Malformed JSON import       ("invalid json")
//	IMP001  - Import payload not readable ("invalid import format")
//	VAL001  - Create/update body rejected ("invalid employee input")
//	VAL002  - Request body not decodable  ("invalid request body")
//	FILE001 - Payload over the size limit ("request body too large")
//	RATE001 - Too many requests           ("rate limit")
//	RATE002 - Import slots exhausted      ("too many concurrent imports")
//	ERR000  - Anything else
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "employee not found",
		msg: UserMessage{
			Message: "Employee not found",
			Action:  "Refresh the directory; the record may have been deleted",
			Code:    "EMP001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Include name, email, department, role, status and startdate in the header row",
			Code:    "IMP002",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The CSV file has no data rows",
			Action:  "Add at least one employee row below the header",
			Code:    "IMP003",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "The JSON file is not a list of employee objects",
			Action:  "Export the directory to see the expected JSON shape",
			Code:    "IMP004",
		},
	},
	{
		pattern: "invalid import format",
		msg: UserMessage{
			Message: "Invalid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "IMP001",
		},
	},
	{
		pattern: "invalid employee input",
		msg: UserMessage{
			Message: "Employee details are incomplete",
			Action:  "Provide at least a name and an email",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid query option",
		msg: UserMessage{
			Message: "Unsupported filter, sort or export option",
			Action:  "Check the query parameters and try again",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a JSON object",
			Code:    "VAL002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum import size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports are running",
			Action:  "Retry the import in a few seconds",
			Code:    "RATE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
