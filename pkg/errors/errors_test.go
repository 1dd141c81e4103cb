package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	wrapped := fmt.Errorf("resolving: %w", ProfileNotFound())

	assert.Equal(t, CodeProfileNotFound, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, CodeProfileNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(NotFound("x")))
}

func TestAppError_Is(t *testing.T) {
	assert.True(t, errors.Is(ContentNotFound(), ContentNotFound()))
	assert.False(t, errors.Is(ContentNotFound(), ProfileNotFound()))
	assert.False(t, errors.Is(InvalidToken(), TokenExpired()))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST(InvalidDuration): total duration must be greater than zero", InvalidDuration().Error())
	assert.Equal(t, "INTERNAL: save failed: disk full", Wrap(ErrorTypeInternal, "save failed", errors.New("disk full")).Error())
}

func TestDomainErrorTypes(t *testing.T) {
	assert.True(t, IsBadRequest(ProfileRequired()))
	assert.True(t, IsBadRequest(InvalidProfileIDFormat()))
	assert.True(t, IsConflict(ProfileLimitExceeded(5)))
	assert.True(t, IsConflict(DuplicateProfileName()))
	assert.True(t, IsConflict(CannotDeleteLastProfile()))
	assert.True(t, IsUnauthorized(TokenExpired()))
	assert.Contains(t, ProfileLimitExceeded(5).Error(), "maximum of 5")
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(errors.New(`ERROR: duplicate key value violates unique constraint "idx"`)))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: profiles.name")))
	assert.False(t, IsDuplicateError(errors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
