package blog

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/KNartey/Inkwell-server/cmd/models"
	"github.com/KNartey/Inkwell-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	))
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB) *mux.Router {
	t.Setenv("SECRET_KEY", "test-secret")
	router := mux.NewRouter()
	NewHandler(db, utils.NewRenderer("../../web/templates")).RegisterRoutes(router)
	return router
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, title, slug string, authorID uint, status int) *models.Post {
	post := &models.Post{
		Title:    title,
		Slug:     slug,
		AuthorID: authorID,
		Content:  "content of " + title,
		Status:   status,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	token, err := utils.NewSessionToken(userID, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: utils.SessionCookie, Value: token}
}

func doGet(router *mux.Router, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func doPost(router *mux.Router, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestPostListShowsOnlyPublished(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Visible Post", "visible-post", author.ID, models.StatusPublished)
	createPost(t, db, "Hidden Draft", "hidden-draft", author.ID, models.StatusDraft)

	rr := doGet(router, "/posts/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Visible Post")
	assert.NotContains(t, rr.Body.String(), "Hidden Draft")
}

func TestPostListPagination(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	for i := 0; i < 7; i++ {
		createPost(t, db, fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i), author.ID, models.StatusPublished)
	}

	rr := doGet(router, "/posts/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 6, strings.Count(rr.Body.String(), "post-card"))

	rr = doGet(router, "/posts/?page=2")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "post-card"))
}

func TestPostListPageBeyondLastIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Only Post", "only-post", author.ID, models.StatusPublished)

	rr := doGet(router, "/posts/?page=99")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No posts on this page.")
	assert.NotContains(t, rr.Body.String(), "Only Post")
}

func TestPostDetailHidesDrafts(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hidden Draft", "hidden-draft", author.ID, models.StatusDraft)

	rr := doGet(router, "/hidden-draft/")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPostDetailShowsOnlyApprovedCommentsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	post := createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	older := models.Comment{PostID: post.ID, Name: "alice", Email: "a@example.com", Body: "older approved", Approved: true}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Model(&older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, Name: "bob", Email: "b@example.com", Body: "newer approved", Approved: true}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, Name: "eve", Email: "e@example.com", Body: "pending moderation", Approved: false}).Error)

	rr := doGet(router, "/hello/")

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "older approved")
	assert.Contains(t, body, "newer approved")
	assert.NotContains(t, body, "pending moderation")
	assert.Less(t, strings.Index(body, "newer approved"), strings.Index(body, "older approved"))
}

func TestCommentAuthorStampedFromSessionUser(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	commenter := createUser(t, db, "reader")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/hello/", url.Values{
		"body":  {"nice post"},
		"name":  {"spoofed name"},
		"email": {"spoofed@example.com"},
	}, sessionCookie(t, commenter.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "awaiting approval")

	var comment models.Comment
	require.NoError(t, db.First(&comment).Error)
	assert.Equal(t, "reader", comment.Name)
	assert.Equal(t, "reader@example.com", comment.Email)
	assert.Equal(t, "nice post", comment.Body)
	assert.False(t, comment.Approved)
}

func TestInvalidCommentNotPersisted(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	commenter := createUser(t, db, "reader")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/hello/", url.Values{"body": {""}}, sessionCookie(t, commenter.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "awaiting approval")
	assert.Contains(t, rr.Body.String(), "This field is required.")

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommentRequiresAuthentication(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/hello/", url.Values{"body": {"anonymous comment"}})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, utils.LoginPath, rr.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLikeToggle(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	liker := createUser(t, db, "reader")
	post := createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)
	cookie := sessionCookie(t, liker.ID)

	rr := doPost(router, "/like/hello", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", liker.ID, post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rr = doPost(router, "/like/hello", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	require.NoError(t, db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", liker.ID, post.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Unliking must remove the row outright so liking again works.
	rr = doPost(router, "/like/hello", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	require.NoError(t, db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", liker.ID, post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLikeWorksOnDrafts(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hidden Draft", "hidden-draft", author.ID, models.StatusDraft)

	rr := doPost(router, "/like/hidden-draft", nil, sessionCookie(t, author.ID))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hidden-draft/", rr.Header().Get("Location"))
}

func TestLikeRequiresAuthentication(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/like/hello", nil)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, utils.LoginPath, rr.Header().Get("Location"))
}

func TestLikeUnknownSlugNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	user := createUser(t, db, "reader")

	rr := doPost(router, "/like/no-such-post", nil, sessionCookie(t, user.ID))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreatePostAndBrowse(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	cookie := sessionCookie(t, author.ID)

	rr := doPost(router, "/create_post/", url.Values{
		"title":   {"Hello"},
		"slug":    {"hello"},
		"content": {"first post"},
		"status":  {"1"},
	}, cookie)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("slug = ?", "hello").First(&post).Error)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, models.StatusPublished, post.Status)

	rr = doGet(router, "/posts/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Hello")

	rr = doGet(router, "/hello/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No comments yet.")
}

func TestCreatePostRejectsDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/create_post/", url.Values{
		"title":   {"Hello Again"},
		"slug":    {"hello"},
		"content": {"dup"},
		"status":  {"1"},
	}, sessionCookie(t, author.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Post with this slug already exists.")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreatePostValidationErrorsRedisplayForm(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")

	rr := doPost(router, "/create_post/", url.Values{
		"title":   {""},
		"slug":    {"Not A Slug!"},
		"content": {"text"},
		"status":  {"1"},
	}, sessionCookie(t, author.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "lowercase letters, numbers and hyphens")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdatePost(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusDraft)

	rr := doPost(router, "/update_post/hello", url.Values{
		"title":   {"Hello Revised"},
		"slug":    {"hello"},
		"content": {"revised"},
		"status":  {"1"},
	}, sessionCookie(t, author.ID))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("slug = ?", "hello").First(&post).Error)
	assert.Equal(t, "Hello Revised", post.Title)
	assert.Equal(t, models.StatusPublished, post.Status)
}

func TestUpdateUnknownSlugNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	user := createUser(t, db, "writer")

	rr := doGet(router, "/update_post/nonexistent-slug", sessionCookie(t, user.ID))

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	other := createUser(t, db, "intruder")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/update_post/hello", url.Values{
		"title":   {"Hijacked"},
		"slug":    {"hello"},
		"content": {"hijacked"},
		"status":  {"1"},
	}, sessionCookie(t, other.ID))

	assert.Equal(t, http.StatusForbidden, rr.Code)

	var post models.Post
	require.NoError(t, db.Where("slug = ?", "hello").First(&post).Error)
	assert.Equal(t, "Hello", post.Title)
}

func TestDeletePostCascades(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	post := createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, Name: "a", Email: "a@example.com", Body: "bye", Approved: true}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: author.ID, PostID: post.ID}).Error)
	cookie := sessionCookie(t, author.ID)

	rr := doGet(router, "/delete_post/hello/delete", cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Are you sure")

	rr = doPost(router, "/delete_post/hello/delete", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/posts/", rr.Header().Get("Location"))

	var posts, comments, likes int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
	assert.Zero(t, likes)
}

func TestSlugReusableAfterDelete(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)
	cookie := sessionCookie(t, author.ID)

	rr := doPost(router, "/delete_post/hello/delete", nil, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = doPost(router, "/create_post/", url.Values{
		"title":   {"Hello Reborn"},
		"slug":    {"hello"},
		"content": {"second life"},
		"status":  {"1"},
	}, cookie)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/hello/", rr.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("slug = ?", "hello").First(&post).Error)
	assert.Equal(t, "Hello Reborn", post.Title)
}

func TestDeletePostOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	author := createUser(t, db, "writer")
	other := createUser(t, db, "intruder")
	createPost(t, db, "Hello", "hello", author.ID, models.StatusPublished)

	rr := doPost(router, "/delete_post/hello/delete", nil, sessionCookie(t, other.ID))

	assert.Equal(t, http.StatusForbidden, rr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProfileAutoCreatedOnFirstVisit(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	user := createUser(t, db, "writer")

	rr := doGet(router, "/profile/", sessionCookie(t, user.ID))

	assert.Equal(t, http.StatusOK, rr.Code)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
}

func TestProfileUpdateIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	user := createUser(t, db, "writer")
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID, Bio: "old bio"}).Error)
	cookie := sessionCookie(t, user.ID)

	// Invalid email: neither the user nor the profile may change.
	rr := doPost(router, "/profile/", url.Values{
		"email": {"not-an-email"},
		"bio":   {"new bio"},
	}, cookie)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Enter a valid email address.")

	var reloadedUser models.User
	var reloadedProfile models.Profile
	require.NoError(t, db.First(&reloadedUser, user.ID).Error)
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&reloadedProfile).Error)
	assert.Equal(t, "writer@example.com", reloadedUser.Email)
	assert.Equal(t, "old bio", reloadedProfile.Bio)

	// Valid submission saves both and redirects.
	rr = doPost(router, "/profile/", url.Values{
		"first_name": {"Ada"},
		"email":      {"ada@example.com"},
		"bio":        {"new bio"},
	}, cookie)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/profile/", rr.Header().Get("Location"))

	require.NoError(t, db.First(&reloadedUser, user.ID).Error)
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&reloadedProfile).Error)
	assert.Equal(t, "Ada", reloadedUser.FirstName)
	assert.Equal(t, "ada@example.com", reloadedUser.Email)
	assert.Equal(t, "new bio", reloadedProfile.Bio)
}

func TestProfileUpdateSetsFlash(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)
	user := createUser(t, db, "writer")
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID}).Error)
	cookie := sessionCookie(t, user.ID)

	rr := doPost(router, "/profile/", url.Values{"email": {"writer@example.com"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	var flash *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "flash" {
			flash = c
		}
	}
	require.NotNil(t, flash)

	rr = doGet(router, "/profile/", cookie, flash)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Profile updated successfully")
}

func TestLandingPage(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(t, db)

	rr := doGet(router, "/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Inkwell")
}
