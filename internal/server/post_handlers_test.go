package server

import (
	"net/http"
	"testing"

	"commune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndReactToPost(t *testing.T) {
	s, app, db := newTestServer(t)
	_, authorToken := createTestUser(t, s, db, "Author", "author@example.com")
	_, readerToken := createTestUser(t, s, db, "Reader", "reader@example.com")

	// Create a post
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/posts", authorToken, map[string]interface{}{
		"title":     "Hello Commune",
		"caption":   "first post",
		"media_url": "https://example.com/pic.png",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post models.Post
	decodeBody(t, resp, &post)
	assert.Equal(t, models.MediaTypeImage, post.MediaType)

	// Like it as the reader
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/posts/"+pathID(post.ID)+"/like", readerToken, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var toggle struct {
		LikesCount    int  `json:"likes_count"`
		DislikesCount int  `json:"dislikes_count"`
		Liked         bool `json:"liked"`
	}
	decodeBody(t, resp, &toggle)
	assert.Equal(t, 1, toggle.LikesCount)
	assert.True(t, toggle.Liked)

	// Switch to a dislike; the like must be removed
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/posts/"+pathID(post.ID)+"/dislike", readerToken, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var toggle2 struct {
		LikesCount    int  `json:"likes_count"`
		DislikesCount int  `json:"dislikes_count"`
		Disliked      bool `json:"disliked"`
	}
	decodeBody(t, resp, &toggle2)
	assert.Equal(t, 0, toggle2.LikesCount)
	assert.Equal(t, 1, toggle2.DislikesCount)
	assert.True(t, toggle2.Disliked)

	// Detail view reflects the reader's reaction state
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/posts/"+pathID(post.ID), readerToken, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail models.Post
	decodeBody(t, resp, &detail)
	assert.False(t, detail.Liked)
	assert.True(t, detail.Disliked)
}

func TestDeletePostPermissions(t *testing.T) {
	s, app, db := newTestServer(t)
	author, authorToken := createTestUser(t, s, db, "Author", "author@example.com")
	_, strangerToken := createTestUser(t, s, db, "Stranger", "stranger@example.com")

	post := &models.Post{Title: "mine", UserID: author.ID, Status: models.PostStatusActive, MediaType: models.MediaTypeNone}
	require.NoError(t, db.Create(post).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/posts/"+pathID(post.ID), strangerToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/posts/"+pathID(post.ID), authorToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatestFeed(t *testing.T) {
	s, app, db := newTestServer(t)
	author, token := createTestUser(t, s, db, "Author", "author@example.com")

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&models.Post{
			Title: title, UserID: author.ID,
			Status: models.PostStatusActive, MediaType: models.MediaTypeNone,
		}).Error)
	}
	// Hidden posts never surface
	require.NoError(t, db.Create(&models.Post{
		Title: "hidden", UserID: author.ID,
		Status: models.PostStatusHidden, MediaType: models.MediaTypeNone,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/feed/latest", token, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.Post
	decodeBody(t, resp, &posts)
	require.Len(t, posts, 3)
	for _, p := range posts {
		assert.NotEqual(t, "hidden", p.Title)
	}
}

func TestCommentLifecycle(t *testing.T) {
	s, app, db := newTestServer(t)
	author, authorToken := createTestUser(t, s, db, "Author", "author@example.com")
	_, commenterToken := createTestUser(t, s, db, "Commenter", "commenter@example.com")

	post := &models.Post{Title: "discuss", UserID: author.ID, Status: models.PostStatusActive, MediaType: models.MediaTypeNone}
	require.NoError(t, db.Create(post).Error)

	// Comment as another user
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/posts/"+pathID(post.ID)+"/comments", commenterToken, map[string]interface{}{
		"text": "great post",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var comment models.Comment
	decodeBody(t, resp, &comment)

	// Reply to it
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/posts/"+pathID(post.ID)+"/comments", authorToken, map[string]interface{}{
		"text":      "thanks",
		"parent_id": comment.ID,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reply models.Comment
	decodeBody(t, resp, &reply)

	// Replies to replies are rejected
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/posts/"+pathID(post.ID)+"/comments", commenterToken, map[string]interface{}{
		"text":      "nested",
		"parent_id": reply.ID,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Public listing shows the thread
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/posts/"+pathID(post.ID)+"/comments", "", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var comments []models.Comment
	decodeBody(t, resp, &comments)
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)

	// Post counter includes the reply
	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 2, stored.CommentsCount)
}
