package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Domain errors surfaced by the group and membership services.
// Handlers map them to stable HTTP statuses; none of them is retried
// automatically. ErrStoreTimeout is the one retryable failure.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupClosed          = errors.New("group is closed for new members")
	ErrGroupFull            = errors.New("group is full")
	ErrAlreadyMember        = errors.New("already a member of this group")
	ErrNotMember            = errors.New("not a member of this group")
	ErrOrganizerCannotLeave = errors.New("organizer cannot leave their own group")
	ErrForbidden            = errors.New("not enough permissions")
	ErrValidation           = errors.New("invalid input")
	ErrStoreTimeout         = errors.New("store operation timed out")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translateStoreErr converts driver-level failures into domain
// errors: context expiry becomes the retryable ErrStoreTimeout,
// everything else passes through unchanged.
func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrStoreTimeout
	}
	return err
}

// isDuplicateKey matches the unique-constraint violation wording of
// both the postgres and sqlite drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
