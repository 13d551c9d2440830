package service

import (
	"strings"

	"lifeos/internal/apperrors"
)

// MinPasswordLength is the shortest password accepted client-side.
const MinPasswordLength = 8

// NormalizePriority lowercases p and defaults empty to medium.
func NormalizePriority(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return PriorityMedium
	}
	return p
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Validate checks a task payload before it is sent.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Invalid("title", "title required")
	}
	if !ValidPriority(in.Priority) {
		return apperrors.Invalid("priority", "priority must be low, medium or high")
	}
	return nil
}

// Validate checks a habit payload before it is sent.
func (in HabitInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Invalid("name", "habit name required")
	}
	return nil
}

// ValidateCredentials checks login input.
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return apperrors.Invalid("password", "password required")
	}
	return nil
}

// ValidateRegistration checks sign-up input.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Invalid("name", "name required")
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateEmail performs a presence and shape check only.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Invalid("email", "email required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return apperrors.Invalid("email", "invalid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum length.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return apperrors.Invalid("password", "password must be at least 8 characters")
	}
	return nil
}

// ValidatePasswordChange checks the change-password form.
func ValidatePasswordChange(current, next string) error {
	if current == "" {
		return apperrors.Invalid("current_password", "current password required")
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if current == next {
		return apperrors.Invalid("new_password", "new password must differ from the current one")
	}
	return nil
}
