package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// Issue codes reported in the details array of a 400 response.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidString = "invalid_string"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeCustom        = "custom"
)

// Issue describes one field that failed validation.
type Issue struct {
	Code       string   `json:"code"`
	Path       []string `json:"path"`
	Message    string   `json:"message"`
	Expected   string   `json:"expected,omitempty"`
	Received   string   `json:"received,omitempty"`
	Validation string   `json:"validation,omitempty"`
	Type       string   `json:"type,omitempty"`
	Minimum    *int     `json:"minimum,omitempty"`
	Maximum    *int     `json:"maximum,omitempty"`
	Inclusive  bool     `json:"inclusive,omitempty"`
}

// contactFields is the order issues are reported in.
var contactFields = []string{"name", "email", "message"}

// DecodeContact parses a contact form body and validates it.
// It returns the request and a nil slice on success, or every issue found.
// Control characters are dropped before the length checks; whitespace is
// counted as submitted.
func DecodeContact(body []byte) (models.ContactRequest, []Issue) {
	var req models.ContactRequest

	if !json.Valid(body) {
		return req, []Issue{{
			Code:     CodeInvalidType,
			Path:     []string{},
			Message:  "Malformed JSON body",
			Expected: "object",
			Received: "invalid_json",
		}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return req, []Issue{{
			Code:     CodeInvalidType,
			Path:     []string{},
			Message:  "Expected object, received " + jsonKind(body),
			Expected: "object",
			Received: jsonKind(body),
		}}
	}

	var issues []Issue
	values := make(map[string]string, len(contactFields))
	for _, field := range contactFields {
		value, ok := raw[field]
		if !ok {
			issues = append(issues, Issue{
				Code:     CodeInvalidType,
				Path:     []string{field},
				Message:  "Required",
				Expected: "string",
				Received: "undefined",
			})
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			kind := jsonKind(value)
			issues = append(issues, Issue{
				Code:     CodeInvalidType,
				Path:     []string{field},
				Message:  "Expected string, received " + kind,
				Expected: "string",
				Received: kind,
			})
			continue
		}
		values[field] = SanitizeText(s)
	}

	req.Name = values["name"]
	req.Email = values["email"]
	req.Message = values["message"]

	// Only fields that decoded as strings get length and format checks
	for _, issue := range ValidateContact(req) {
		if _, decoded := values[issue.Path[0]]; decoded {
			issues = append(issues, issue)
		}
	}
	if len(issues) > 0 {
		sortIssues(issues)
		return req, issues
	}
	return req, nil
}

// ValidateContact runs the struct tags on req and converts failures into issues.
func ValidateContact(req models.ContactRequest) []Issue {
	err := Validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Code: CodeCustom, Path: []string{}, Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, issueFromFieldError(fe))
	}
	return issues
}

func issueFromFieldError(fe validator.FieldError) Issue {
	path := []string{fe.Field()}
	switch fe.Tag() {
	case "min":
		n, _ := strconv.Atoi(fe.Param())
		return Issue{
			Code:      CodeTooSmall,
			Path:      path,
			Message:   fmt.Sprintf("String must contain at least %d character(s)", n),
			Type:      "string",
			Minimum:   &n,
			Inclusive: true,
		}
	case "max":
		n, _ := strconv.Atoi(fe.Param())
		return Issue{
			Code:      CodeTooBig,
			Path:      path,
			Message:   fmt.Sprintf("String must contain at most %d character(s)", n),
			Type:      "string",
			Maximum:   &n,
			Inclusive: true,
		}
	case "email":
		return Issue{
			Code:       CodeInvalidString,
			Path:       path,
			Message:    "Invalid email",
			Validation: "email",
		}
	case "required":
		return Issue{Code: CodeInvalidType, Path: path, Message: "Required", Expected: "string", Received: "undefined"}
	default:
		return Issue{Code: CodeCustom, Path: path, Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}

// sortIssues orders issues by field position, keeping the relative order within a field.
func sortIssues(issues []Issue) {
	rank := func(i Issue) int {
		if len(i.Path) == 0 {
			return -1
		}
		for n, f := range contactFields {
			if f == i.Path[0] {
				return n
			}
		}
		return len(contactFields)
	}
	for i := 1; i < len(issues); i++ {
		for j := i; j > 0 && rank(issues[j]) < rank(issues[j-1]); j-- {
			issues[j], issues[j-1] = issues[j-1], issues[j]
		}
	}
}

// jsonKind names the JSON type of a raw value the way the issue messages do.
func jsonKind(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "":
		return "undefined"
	case s == "null":
		return "null"
	case s == "true" || s == "false":
		return "boolean"
	case s[0] == '"':
		return "string"
	case s[0] == '[':
		return "array"
	case s[0] == '{':
		return "object"
	case strings.ContainsAny(s[:1], "-0123456789"):
		return "number"
	default:
		return "unknown"
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
