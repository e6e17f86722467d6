package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	apperrors "dayslot/pkg/errors"
	"dayslot/pkg/logger"
	"dayslot/pkg/model"
)

// Headers set by the authenticating gateway. They are trusted as-is; the
// service must only be reachable through that gateway.
const (
	HeaderUserEmail             = "X-User-Email"
	HeaderUserWeeklyQuota       = "X-User-Weekly-Quota"
	HeaderUserManageAll         = "X-User-Manage-All"
	HeaderUserManagedFacilities = "X-User-Managed-Facilities"
)

const principalKey contextKey = "principal"

// Principal resolves the pre-authenticated caller from the gateway headers
// and stores it in the request context. Requests without an email are
// rejected with 401.
func Principal(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromHeaders(r.Header)
			if err != nil {
				log.Warn("Rejected request without a valid principal",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = apperrors.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func principalFromHeaders(h http.Header) (*model.Principal, error) {
	email := strings.ToLower(strings.TrimSpace(h.Get(HeaderUserEmail)))
	if email == "" {
		return nil, apperrors.Unauthorized("Missing authenticated principal")
	}

	principal := &model.Principal{Email: email}

	if raw := strings.TrimSpace(h.Get(HeaderUserWeeklyQuota)); raw != "" {
		quota, err := strconv.Atoi(raw)
		if err != nil || quota < 0 {
			return nil, apperrors.Unauthorized("Malformed " + HeaderUserWeeklyQuota + " header")
		}
		principal.WeeklyQuota = quota
	}

	if raw := strings.TrimSpace(h.Get(HeaderUserManageAll)); raw != "" {
		manageAll, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.Unauthorized("Malformed " + HeaderUserManageAll + " header")
		}
		principal.ManageAll = manageAll
	}

	for _, id := range strings.Split(h.Get(HeaderUserManagedFacilities), ",") {
		if id = strings.TrimSpace(id); id != "" {
			principal.ManagedFacilities = append(principal.ManagedFacilities, id)
		}
	}

	return principal, nil
}

func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

func PrincipalFrom(ctx context.Context) (*model.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*model.Principal)
	return principal, ok && principal != nil
}
