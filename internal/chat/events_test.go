package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "classroom_chat/pkg/errors"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		raw  string
		want Event
	}{
		{`{"event":"send-direct","data":{"receiver_id":2,"message":"hello"}}`, SendDirect{ReceiverID: 2, Message: "hello"}},
		{`{"event":"send-group","data":{"group_id":10,"message":"standup"}}`, SendGroup{GroupID: 10, Message: "standup"}},
		{`{"event":"fetch-history","data":{"other_user_id":2}}`, FetchHistory{OtherUserID: 2}},
		{`{"event":"fetch-group-history","data":{"group_id":10}}`, FetchGroupHistory{GroupID: 10}},
	}

	for _, tt := range tests {
		name, event, err := DecodeEvent([]byte(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, event)
		assert.Equal(t, tt.want.Name(), name)
	}
}

func TestDecodeEventRejects(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"event":"send-direct"}`,
		`{"event":"send-direct","data":{"message":"no receiver"}}`,
		`{"event":"send-group","data":{"group_id":"ten"}}`,
		`{"event":"fetch-history","data":{}}`,
		`{"event":"delete-message","data":{"id":1}}`,
	} {
		_, _, err := DecodeEvent([]byte(raw))
		assert.ErrorIs(t, err, apperrors.ErrBadRequest, raw)
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthenticated, errorCode(apperrors.ErrNotAuthenticated))
	assert.Equal(t, ErrCodeGroupNotFound, errorCode(apperrors.ErrGroupNotFound))
	assert.Equal(t, ErrCodeNotGroupMember, errorCode(apperrors.ErrNotGroupMember))
	assert.Equal(t, ErrCodeStoreUnavailable,
		errorCode(fmt.Errorf("create: %w: %w", apperrors.ErrStoreUnavailable, errors.New("down"))))
	assert.Equal(t, ErrCodeBadRequest, errorCode(fmt.Errorf("%w: empty", apperrors.ErrBadRequest)))
	assert.Equal(t, ErrCodeInternalError, errorCode(errors.New("boom")))
	assert.Equal(t, "internal error", errorMessage(ErrCodeInternalError, errors.New("pq: secret detail")))
}
