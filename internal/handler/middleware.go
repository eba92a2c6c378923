package handler

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"

	"github.com/go-chi/chi/v5/middleware"
)

// authenticate resolves the bearer token and stores the caller's identity in
// the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeServiceError(w, r, fmt.Errorf("%w: missing bearer token", model.ErrUnauthorized))
			return
		}

		id, err := h.svc.Auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireRole(identity(r), roles...); err != nil {
				writeServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// throttleLogin blocks a username after repeated failed logins. Limiter errors
// let the request through.
func (h *Handler) throttleLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid form body")
			return
		}
		username := r.PostFormValue("username")
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		wait, err := h.limiter.Blocked(ctx, username)
		if err != nil {
			log.Printf("[%s] login limiter unavailable: %v", middleware.GetReqID(ctx), err)
		} else if wait > 0 {
			seconds := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "too_many_attempts",
				fmt.Sprintf("too many failed login attempts, retry in %d seconds", seconds))
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		switch ww.Status() {
		case http.StatusUnauthorized:
			if _, err := h.limiter.RegisterFailure(ctx, username); err != nil {
				log.Printf("[%s] failed to record login failure: %v", middleware.GetReqID(ctx), err)
			}
		case http.StatusOK:
			if err := h.limiter.Reset(ctx, username); err != nil {
				log.Printf("[%s] failed to reset login attempts: %v", middleware.GetReqID(ctx), err)
			}
		}
	})
}
