package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeConsentDenied, Message: "no active consent for scope"}
		s.Equal("no active consent for scope", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeConsentDenied}
		s.Equal("consent_denied", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("database connection failed")
		err := &Error{Code: CodePersistenceFailure, Message: "audit append failed", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeNotFound, Message: "consent not found"}
		err2 := &Error{Code: CodeNotFound, Message: "patient not found"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeConsentDenied}
		err2 := &Error{Code: CodeNotFound}
		s.False(err1.Is(err2))
	})

	s.Run("does not match non-domain errors", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := errors.New("not found")
		s.False(err1.Is(err2))
	})

	s.Run("works with errors.Is through chain", func() {
		inner := &Error{Code: CodePersistenceFailure, Message: "original"}
		wrapped := &Error{Code: CodeInternal, Message: "wrapped", Err: inner}
		target := &Error{Code: CodePersistenceFailure}
		s.True(errors.Is(wrapped, target))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves code of wrapped domain error", func() {
		inner := New(CodeInvalidGrant, "empty scope set")
		wrapped := Wrap(inner, CodeInternal, "grant failed")
		s.True(HasCode(wrapped, CodeInvalidGrant))
	})

	s.Run("applies new code to plain errors", func() {
		inner := errors.New("pq: connection refused")
		wrapped := Wrap(inner, CodePersistenceFailure, "audit store unavailable")
		s.True(HasCode(wrapped, CodePersistenceFailure))
		s.ErrorIs(wrapped, inner)
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("false for nil", func() {
		s.False(HasCode(nil, CodeNotFound))
	})

	s.Run("false for plain errors", func() {
		s.False(HasCode(errors.New("boom"), CodeInternal))
	})
}
