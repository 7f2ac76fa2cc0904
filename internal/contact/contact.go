package contact

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	Categories = []string{"general", "support", "feedback", "partnership", "bug"}
	Priorities = []string{"low", "normal", "high", "urgent"}
)

const defaultPriority = "normal"

var (
	ErrRequired = errors.New("is required")
	ErrInvalid  = errors.New("is invalid")
)

type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

type Form struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
	Subscribe bool   `json:"subscribe"`
}

// Normalize trims every text field and fills the default priority.
func (f *Form) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.Message = strings.TrimSpace(f.Message)
	f.Priority = strings.ToLower(strings.TrimSpace(f.Priority))
	if f.Priority == "" {
		f.Priority = defaultPriority
	}
}

// Validate reports every failing field; use multierr.Errors to list them.
func (f Form) Validate() error {
	var err error
	required := []struct {
		field string
		value string
	}{
		{"full_name", f.FullName},
		{"email", f.Email},
		{"subject", f.Subject},
		{"category", f.Category},
		{"message", f.Message},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			err = multierr.Append(err, &FieldError{Field: r.field, Err: ErrRequired})
		}
	}

	if f.Email != "" && !validEmail(f.Email) {
		err = multierr.Append(err, &FieldError{Field: "email", Err: ErrInvalid})
	}
	if f.Category != "" && !slices.Contains(Categories, f.Category) {
		err = multierr.Append(err, &FieldError{Field: "category", Err: ErrInvalid})
	}
	if f.Priority != "" && !slices.Contains(Priorities, f.Priority) {
		err = multierr.Append(err, &FieldError{Field: "priority", Err: ErrInvalid})
	}
	return err
}

func validEmail(email string) bool {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}

// Submit normalizes and validates the form, then records it in the log. There
// is no delivery beyond that.
func Submit(f Form, logger *zap.Logger) (Form, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return f, err
	}
	if logger != nil {
		logger.Info("contact form submitted",
			zap.String("full_name", f.FullName),
			zap.String("email", f.Email),
			zap.String("subject", f.Subject),
			zap.String("category", f.Category),
			zap.String("priority", f.Priority),
			zap.Bool("subscribe", f.Subscribe),
		)
	}
	return f, nil
}
