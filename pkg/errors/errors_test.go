package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrGroupNotFound, http.StatusNotFound},
		{fmt.Errorf("create direct message: %w: %w", ErrStoreUnavailable, fmt.Errorf("dial tcp")), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrNotGroupMember, http.StatusForbidden},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrRateLimited, http.StatusTooManyRequests},
		{NewAPIError("teapot", http.StatusTeapot), http.StatusTeapot},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFromError(tt.err), tt.err.Error())
	}
}
