// Package apperrors provides coded application errors shared by the domain
// services and mapped to transport status codes at the API boundary.
package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Not found
	CodeBoardNotFound   Code = "BOARD_NOT_FOUND"
	CodeCardNotFound    Code = "CARD_NOT_FOUND"
	CodeCardNotInColumn Code = "CARD_NOT_IN_COLUMN"
	CodeTeamNotFound    Code = "TEAM_NOT_FOUND"
	CodeInviteNotFound  Code = "INVITE_NOT_FOUND"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodePolicyNotFound  Code = "POLICY_NOT_FOUND"

	// Invalid input
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidColumn Code = "INVALID_COLUMN"
	CodeInvalidAction Code = "INVALID_ACTION"

	// Conflict
	CodeVersionConflict        Code = "VERSION_CONFLICT"
	CodeDuplicatePendingInvite Code = "DUPLICATE_PENDING_INVITE"
	CodeAlreadyMember          Code = "ALREADY_MEMBER"
	CodeDuplicateRequest       Code = "DUPLICATE_REQUEST"

	// Forbidden
	CodeForbidden  Code = "FORBIDDEN"
	CodeNotInvitee Code = "NOT_INVITEE"

	CodeAlreadyResponded Code = "ALREADY_RESPONDED"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeInternal         Code = "INTERNAL"
)

// Kind is the stable error category a Code belongs to.
type Kind string

const (
	KindNotFound               Kind = "NotFound"
	KindInvalidInput           Kind = "InvalidInput"
	KindConflict               Kind = "Conflict"
	KindForbidden              Kind = "Forbidden"
	KindAlreadyInTerminalState Kind = "AlreadyInTerminalState"
	KindUnauthenticated        Kind = "Unauthenticated"
	KindRateLimited            Kind = "RateLimited"
	KindInternal               Kind = "Internal"
)

// Kind maps the code to its category. Unknown codes are Internal.
func (c Code) Kind() Kind {
	switch c {
	case CodeBoardNotFound,
		CodeCardNotFound,
		CodeCardNotInColumn,
		CodeTeamNotFound,
		CodeInviteNotFound,
		CodeUserNotFound,
		CodePolicyNotFound:
		return KindNotFound

	case CodeInvalidInput,
		CodeInvalidColumn,
		CodeInvalidAction:
		return KindInvalidInput

	case CodeVersionConflict,
		CodeDuplicatePendingInvite,
		CodeAlreadyMember,
		CodeDuplicateRequest:
		return KindConflict

	case CodeForbidden,
		CodeNotInvitee:
		return KindForbidden

	case CodeAlreadyResponded:
		return KindAlreadyInTerminalState

	case CodeUnauthenticated:
		return KindUnauthenticated

	case CodeRateLimited:
		return KindRateLimited

	default:
		return KindInternal
	}
}

// HTTPStatus maps the kind to an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict, KindAlreadyInTerminalState:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
