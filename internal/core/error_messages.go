package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Record not found: No record has the requested id
//	         Patterns: "record not found"
//
//	REC002 - Invalid record: Request body is not a JSON object
//	         Patterns: "invalid record"
//
//	REC003 - Unstorable fields: A field name or value does not fit the sheet
//	         Patterns: "invalid record fields"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Upload exceeds the configured size limit
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unreadable workbook: File could not be opened as a spreadsheet
//	          Patterns: "unreadable workbook"
//
//	FILE003 - Invalid sheet: Sheet rows could not be read
//	          Patterns: "invalid sheet structure"
//
//	FILE004 - No file: No file was attached to the upload
//	          Patterns: "no file provided"
//
//	FILE005 - Data file missing: The backing workbook does not exist
//	          Patterns: "file not found"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Save failed: The backing workbook could not be written
//	         Patterns: "write "
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

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
	// Records
	{
		pattern: "record not found",
		msg: UserMessage{
			Message: "Record not found",
			Action:  "Refresh the list and try again",
			Code:    "REC001",
		},
	},
	{
		pattern: "invalid record fields",
		msg: UserMessage{
			Message: "Some fields cannot be stored",
			Action:  "Use non-empty field names and keep each value under 32767 characters",
			Code:    "REC003",
		},
	},
	{
		pattern: "invalid record",
		msg: UserMessage{
			Message: "Request body must be a JSON object",
			Action:  "Send the record fields as a JSON object",
			Code:    "REC002",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused rows or sheets and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused rows or sheets and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unreadable workbook",
		msg: UserMessage{
			Message: "File is not a valid spreadsheet",
			Action:  "Save the file as .xlsx or .csv and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid sheet structure",
		msg: UserMessage{
			Message: "The first sheet could not be read",
			Action:  "Check that the first sheet has a header row",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "The data file does not exist",
			Action:  "Upload a spreadsheet to initialize the data",
			Code:    "FILE005",
		},
	},

	// Storage
	{
		pattern: "write ",
		msg: UserMessage{
			Message: "Changes could not be saved",
			Action:  "Please try again or contact support",
			Code:    "STO001",
		},
	},

	// Uploads
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
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

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
