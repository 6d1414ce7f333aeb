package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	minGoalNameLen = 3
	maxGoalNameLen = 100
)

// maxAmount is the largest value a NUMERIC(20,2) column holds.
var maxAmount = decimal.RequireFromString("999999999999999999.99")

var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if utf8.RuneCountInString(username) < minUsernameLen {
		return common.NewValidationError("username", "username must be at least %d characters", minUsernameLen)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return common.NewValidationError("email", "please provide a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return common.NewValidationError("password", "password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func validateGoalName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minGoalNameLen {
		return common.NewValidationError("name", "goal name must be at least %d characters", minGoalNameLen)
	}
	if n > maxGoalNameLen {
		return common.NewValidationError("name", "goal name must be at most %d characters", maxGoalNameLen)
	}
	return nil
}

// hasCents reports whether d has no more than two fractional digits.
func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func validateTarget(target decimal.Decimal) error {
	if target.IsNegative() {
		return common.NewValidationError("target_amount", "target amount must not be negative")
	}
	if !hasCents(target) {
		return common.NewValidationError("target_amount", "target amount must have at most two decimal places")
	}
	if target.GreaterThan(maxAmount) {
		return common.NewValidationError("target_amount", "target amount must not exceed %s", maxAmount)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.NewValidationError("amount", "amount must be greater than zero")
	}
	if !hasCents(amount) {
		return common.NewValidationError("amount", "amount must have at most two decimal places")
	}
	if amount.GreaterThan(maxAmount) {
		return common.NewValidationError("amount", "amount must not exceed %s", maxAmount)
	}
	return nil
}

// validID reports whether id looks like a goal id. Malformed ids are
// treated as not found by callers.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
