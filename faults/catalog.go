package faults

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity grades an error for log routing and operator attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Category groups errors by subsystem.
type Category string

const (
	CategoryParameter Category = "parameter"
	CategoryImage     Category = "image"
	CategoryCamera    Category = "camera"
	CategoryTool      Category = "tool"
	CategoryNetwork   Category = "network"
	CategoryFile      Category = "file"
	CategorySystem    Category = "system"
)

// Info describes one catalog entry: what a code means and what an
// operator should do about it.
type Info struct {
	Code              int
	Message           string
	Severity          Severity
	Category          Category
	Description       string
	RecommendedAction string
}

// catalog is the static code table. Codes align with the Kind
// constants in errors.go.
var catalog = map[int]Info{
	CodeParameter: {
		Code:              CodeParameter,
		Message:           "invalid parameter",
		Severity:          SeverityError,
		Category:          CategoryParameter,
		Description:       "a configuration value is invalid or out of range",
		RecommendedAction: "check the tool's parameter values against their specs",
	},
	CodeFile: {
		Code:              CodeFile,
		Message:           "file not found",
		Severity:          SeverityError,
		Category:          CategoryFile,
		Description:       "a referenced file does not exist or cannot be read",
		RecommendedAction: "verify the file path and permissions",
	},
	CodeImage: {
		Code:              CodeImage,
		Message:           "image processing failed",
		Severity:          SeverityError,
		Category:          CategoryImage,
		Description:       "the image artifact is absent, invalid, or could not be processed",
		RecommendedAction: "check the upstream image source",
	},
	CodeInternal: {
		Code:              CodeInternal,
		Message:           "tool execution failed",
		Severity:          SeverityError,
		Category:          CategoryTool,
		Description:       "an unclassified error occurred inside a tool",
		RecommendedAction: "check the tool configuration and input data",
	},
	CodeCamera: {
		Code:              CodeCamera,
		Message:           "camera failure",
		Severity:          SeverityCritical,
		Category:          CategoryCamera,
		Description:       "camera connection or frame acquisition failed",
		RecommendedAction: "check the camera connection and its configuration",
	},
	CodeNetwork: {
		Code:              CodeNetwork,
		Message:           "network failure",
		Severity:          SeverityError,
		Category:          CategoryNetwork,
		Description:       "a network connection or transfer failed",
		RecommendedAction: "check connectivity to the target device",
	},
}

// Lookup returns the catalog entry for a code.
func Lookup(code int) (Info, bool) {
	info, ok := catalog[code]
	return info, ok
}

// ByCategory returns all catalog entries in a category.
func ByCategory(c Category) []Info {
	var out []Info
	for _, info := range catalog {
		if info.Category == c {
			out = append(out, info)
		}
	}
	return out
}

// BySeverity returns all catalog entries at a severity.
func BySeverity(s Severity) []Info {
	var out []Info
	for _, info := range catalog {
		if info.Severity == s {
			out = append(out, info)
		}
	}
	return out
}

// FormatMessage renders "[SEVERITY] message: details" for a code, or a
// generic unknown-code form.
func FormatMessage(code int, details string) string {
	info, ok := catalog[code]
	if !ok {
		if details != "" {
			return fmt.Sprintf("[ERROR] unknown error (code %d): %s", code, details)
		}
		return fmt.Sprintf("[ERROR] unknown error (code %d)", code)
	}
	msg := fmt.Sprintf("[%s] %s", strings.ToUpper(string(info.Severity)), info.Message)
	if details != "" {
		msg += ": " + details
	}
	return msg
}

// LogError writes a catalog-formatted entry to the logger at the level
// matching the code's severity. A nil logger uses slog.Default().
func LogError(logger *slog.Logger, code int, details string, context map[string]any) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.Int("code", code)}
	for k, v := range context {
		attrs = append(attrs, slog.Any(k, v))
	}
	msg := FormatMessage(code, details)

	info, ok := catalog[code]
	if !ok {
		logger.Error(msg, attrs...)
		return
	}
	switch info.Severity {
	case SeverityCritical:
		// slog has no critical level; flag it instead.
		logger.Error(msg, append(attrs, slog.Bool("critical", true))...)
	case SeverityError:
		logger.Error(msg, attrs...)
	case SeverityWarning:
		logger.Warn(msg, attrs...)
	default:
		logger.Info(msg, attrs...)
	}
}
