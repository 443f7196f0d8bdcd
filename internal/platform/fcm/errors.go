package fcm

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// Ordered: the messaging predicates are more specific than the platform ones.
var errorCodes = []struct {
	match func(error) bool
	code  string
}{
	{messaging.IsUnregistered, "messaging/registration-token-not-registered"},
	{messaging.IsInvalidArgument, "messaging/invalid-argument"},
	{messaging.IsSenderIDMismatch, "messaging/mismatched-credential"},
	{messaging.IsQuotaExceeded, "messaging/message-rate-exceeded"},
	{messaging.IsThirdPartyAuthError, "messaging/third-party-auth-error"},
	{messaging.IsUnavailable, "messaging/server-unavailable"},
	{messaging.IsInternal, "messaging/internal-error"},
	{errorutils.IsUnauthenticated, "messaging/authentication-error"},
	{errorutils.IsPermissionDenied, "messaging/permission-denied"},
	{errorutils.IsNotFound, "messaging/not-found"},
	{errorutils.IsDeadlineExceeded, "app/network-timeout"},
}

// ErrorCode classifies an SDK error into a stable "service/reason" code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "app/network-timeout"
	case errors.Is(err, context.Canceled):
		return "app/request-cancelled"
	}

	for _, ec := range errorCodes {
		if ec.match(err) {
			return ec.code
		}
	}
	return dispatch.CodeUnknown
}
