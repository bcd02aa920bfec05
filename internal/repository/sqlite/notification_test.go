package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
)

func TestNotifications_ListResolvesReferences(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "hello")
	c := createTestComment(t, db, bob.ID, post.ID, "nice post")

	require.NoError(t, db.CreateNotification(ctx, model.NewLikeNotification(alice.ID, bob.ID, post.ID)))
	require.NoError(t, db.CreateNotification(ctx, model.NewCommentNotification(alice.ID, bob.ID, post.ID, c.ID)))
	require.NoError(t, db.CreateNotification(ctx, model.NewFollowNotification(alice.ID, bob.ID)))

	list, err := db.ListNotifications(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Newest first.
	follow, comment, like := list[0], list[1], list[2]

	assert.Equal(t, model.NotificationFollow, follow.Kind)
	assert.Nil(t, follow.Post)
	assert.Nil(t, follow.Comment)
	assert.Equal(t, "bob", follow.Actor.Username)

	assert.Equal(t, model.NotificationComment, comment.Kind)
	require.NotNil(t, comment.Post)
	require.NotNil(t, comment.Comment)
	assert.Equal(t, post.ID, comment.Post.ID)
	assert.Equal(t, "nice post", comment.Comment.Content)
	assert.False(t, comment.Comment.CreatedAt.IsZero())

	assert.Equal(t, model.NotificationLike, like.Kind)
	require.NotNil(t, like.Post)
	require.NotNil(t, like.Post.Content)
	assert.Equal(t, "hello", *like.Post.Content)
	assert.Nil(t, like.Comment)

	for _, n := range list {
		assert.False(t, n.Read)
		assert.Equal(t, alice.ID, n.RecipientID)
	}
}

func TestNotifications_ListIsScopedToRecipient(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, db.CreateNotification(ctx, model.NewFollowNotification(alice.ID, bob.ID)))

	list, err := db.ListNotifications(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNotifications_SelfNotificationRejected(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	err := db.CreateNotification(context.Background(), model.NewFollowNotification(alice.ID, alice.ID))
	assert.Error(t, err)
}

func TestNotifications_UnknownKindRejected(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	n := model.NewFollowNotification(alice.ID, bob.ID)
	n.Kind = "POKE"
	err := db.CreateNotification(context.Background(), n)
	assert.True(t, apperror.Is(err, apperror.ErrValidation), "got %v", err)

	unread, err := db.CountUnread(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMarkRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	n1 := model.NewFollowNotification(alice.ID, bob.ID)
	n2 := model.NewFollowNotification(alice.ID, bob.ID)
	theirs := model.NewFollowNotification(bob.ID, alice.ID)
	for _, n := range []*model.Notification{n1, n2, theirs} {
		require.NoError(t, db.CreateNotification(ctx, n))
	}

	unread, err := db.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	changed, err := db.MarkRead(ctx, alice.ID, []string{n1.ID, theirs.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, changed, "only the caller's own notifications are touched")

	unread, err = db.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	unread, err = db.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread, "bob's notification must stay unread")
}

func TestMarkRead_CountsOnlyUnread(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	n := model.NewFollowNotification(alice.ID, bob.ID)
	require.NoError(t, db.CreateNotification(ctx, n))

	changed, err := db.MarkRead(ctx, alice.ID, []string{n.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	changed, err = db.MarkRead(ctx, alice.ID, []string{n.ID})
	require.NoError(t, err)
	assert.Zero(t, changed, "already-read notifications are not counted again")
}

func TestMarkRead_EmptyIsNoop(t *testing.T) {
	db := newTestDB(t)

	changed, err := db.MarkRead(context.Background(), "anyone", nil)
	require.NoError(t, err)
	assert.Zero(t, changed)
}
