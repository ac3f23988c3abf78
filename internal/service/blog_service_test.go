package service

import (
	"context"
	"regexp"
	"testing"

	"rockae/internal/models"
	"rockae/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timestampSuffix = `-\d{20}$`

func TestBlogPost_Slugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.blogs.CreatePost(ctx, nil, BlogPostInput{Title: "Empty"})
	assertFieldError(t, err, "blog_message")

	untitled, err := env.blogs.CreatePost(ctx, nil, BlogPostInput{BlogMessage: "body"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile("^"+models.BlogPostSlugPlaceholder+timestampSuffix), untitled.Slug)

	post, err := env.blogs.CreatePost(ctx, nil, BlogPostInput{Title: "Hello, World!", BlogMessage: "body"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile("^hello-world"+timestampSuffix), post.Slug)

	found, err := env.blogs.GetPostBySlug(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	same, err := env.blogs.UpdatePost(ctx, post.ID, BlogPostInput{Title: "Hello, World!", BlogMessage: "edited"})
	require.NoError(t, err)
	assert.Equal(t, post.Slug, same.Slug)

	// Retitling keeps the published slug.
	renamed, err := env.blogs.UpdatePost(ctx, post.ID, BlogPostInput{Title: "Goodbye", BlogMessage: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "Goodbye", renamed.Title)
	assert.Equal(t, post.Slug, renamed.Slug)
	found, err = env.blogs.GetPostBySlug(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Goodbye", found.Title)

	// A row that lost its slug gets one from the current title.
	require.NoError(t, env.db.Model(&models.BlogPost{}).Where("id = ?", untitled.ID).Update("slug", "").Error)
	named, err := env.blogs.UpdatePost(ctx, untitled.ID, BlogPostInput{Title: "Named later", BlogMessage: "body"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile("^named-later"+timestampSuffix), named.Slug)

	posts, err := env.blogs.ListPosts(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestCommunityBlogPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, owner := env.community(t, "Writers")
	member := env.member(t, c.ID, models.RoleMember)
	reader := testutil.CreateUser(t, env.db, "reader")

	_, err := env.blogs.CreateCommunityPost(ctx, member.ID, c.ID, BlogPostInput{Title: "Mine", BlogMessage: "x"})
	assertCode(t, err, models.CodeForbidden)

	post, err := env.blogs.CreateCommunityPost(ctx, owner.ID, c.ID, BlogPostInput{Title: "Release notes", BlogMessage: "v2"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *post.WriterID)

	found, err := env.blogs.GetCommunityPostBySlug(ctx, c.ID, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	_, err = env.blogs.UpdateCommunityPost(ctx, member.ID, post.ID, BlogPostInput{Title: "Hijack", BlogMessage: "x"})
	assertCode(t, err, models.CodeForbidden)

	edited, err := env.blogs.UpdateCommunityPost(ctx, owner.ID, post.ID, BlogPostInput{Title: "Release notes v2", BlogMessage: "v2.1"})
	require.NoError(t, err)
	assert.Equal(t, post.Slug, edited.Slug)

	_, err = env.blogs.Reply(ctx, reader.ID, post.ID, "  ")
	assertFieldError(t, err, "message")
	_, err = env.blogs.Reply(ctx, reader.ID, 9999, "hello")
	assertCode(t, err, models.CodeNotFound)
	reply, err := env.blogs.Reply(ctx, reader.ID, post.ID, " nice ")
	require.NoError(t, err)
	assert.Equal(t, "nice", reply.Message)

	replies, err := env.blogs.ListReplies(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reader.ID, replies[0].UserID)

	list, err := env.blogs.ListCommunityPosts(ctx, c.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
