package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Validation errors
var (
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidIDFormat   = errors.New("invalid ID format")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

// Validation constants
const (
	MaxEmailLength = 254
	MaxAmount      = "99999999999999.99" // NUMERIC(16,2)
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	maxAmount  = MustMoney(MaxAmount)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)

	if len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateAmount checks that amount is strictly positive and storable.
func ValidateAmount(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if maxAmount.LessThan(amount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxAmount)
	}

	return nil
}

// ValidateAccountID checks that id is a ULID.
func ValidateAccountID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	return nil
}

// ValidatePagination checks a zero-based page request and caps pageSize at maxPageSize.
// It returns the effective page size and the row offset. A page whose
// offset would overflow int maps to math.MaxInt, which is past any end.
func ValidatePagination(page, pageSize, maxPageSize int) (int, int, error) {
	if page < 0 {
		return 0, 0, fmt.Errorf("%w: page must be >= 0, got %d", ErrInvalidPagination, page)
	}

	if pageSize < 1 {
		return 0, 0, fmt.Errorf("%w: page size must be >= 1, got %d", ErrInvalidPagination, pageSize)
	}

	if maxPageSize > 0 && pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	if page > math.MaxInt/pageSize {
		return pageSize, math.MaxInt, nil
	}

	return pageSize, page * pageSize, nil
}
