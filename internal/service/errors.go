package service

import "errors"

var (
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden indicates the caller's role may not perform the action.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrCourseRequired indicates a submission named no course.
	ErrCourseRequired = errors.New("course is required")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEmptySubmission indicates neither a file nor a repository link was sent.
	ErrEmptySubmission = errors.New("a file or a github link is required")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role string
}
