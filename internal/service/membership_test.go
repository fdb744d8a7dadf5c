package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

func TestOtherMembers(t *testing.T) {
	resolver := NewMembershipResolver(&fakeGroupRepo{members: map[int64][]int64{
		10: {1, 2, 3},
		11: {1},
	}}, logger.Nop())
	ctx := context.Background()

	others, err := resolver.OtherMembers(ctx, 10, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, others)
	assert.NotContains(t, others, int64(1))

	others, err = resolver.OtherMembers(ctx, 11, 1)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = resolver.OtherMembers(ctx, 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)

	_, err = resolver.OtherMembers(ctx, 10, 7)
	assert.ErrorIs(t, err, apperrors.ErrNotGroupMember)
}

func TestCheckMember(t *testing.T) {
	resolver := NewMembershipResolver(&fakeGroupRepo{members: map[int64][]int64{10: {1, 2}}}, logger.Nop())
	ctx := context.Background()

	assert.NoError(t, resolver.CheckMember(ctx, 10, 2))
	assert.ErrorIs(t, resolver.CheckMember(ctx, 10, 5), apperrors.ErrNotGroupMember)
	assert.ErrorIs(t, resolver.CheckMember(ctx, 99, 1), apperrors.ErrGroupNotFound)
}
