package blog

import (
	"errors"
	"log"
	"net/http"

	"github.com/KNartey/Inkwell-server/cmd/models"
	"github.com/KNartey/Inkwell-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const postsPerPage = 6

type Handler struct {
	db     *gorm.DB
	render *utils.Renderer
}

func NewHandler(db *gorm.DB, render *utils.Renderer) *Handler {
	return &Handler{db: db, render: render}
}

// RegisterRoutes sets up the blog routes. The post detail pattern matches
// any single-segment path, so it must be registered after /profile/ and
// the other fixed-prefix routes.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.LandingPage).Methods("GET").Name("landing_page")
	router.HandleFunc("/posts/", h.PostList).Methods("GET").Name("posts")
	router.HandleFunc("/create_post/", utils.RequireAuth(h.CreatePost)).Methods("GET", "POST").Name("create_post")
	router.HandleFunc("/update_post/{slug}", utils.RequireAuth(h.UpdatePost)).Methods("GET", "POST").Name("update_post")
	router.HandleFunc("/delete_post/{slug}/delete", utils.RequireAuth(h.DeletePost)).Methods("GET", "POST").Name("delete_post")
	router.HandleFunc("/like/{slug}", utils.RequireAuth(h.PostLike)).Methods("POST").Name("post_like")
	router.HandleFunc("/profile/", utils.RequireAuth(h.Profile)).Methods("GET", "POST").Name("profile")
	router.HandleFunc("/{slug}/", utils.WithUser(h.PostDetail)).Methods("GET", "POST").Name("post_detail")
}

// LandingPage renders the static informational page.
func (h *Handler) LandingPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "landing_page.html", nil)
}

// PostList shows published posts newest-first, six per page. A page past
// the end renders an empty list rather than failing.
func (h *Handler) PostList(w http.ResponseWriter, r *http.Request) {
	page := utils.PageParam(r)

	var total int64
	if err := h.db.Model(&models.Post{}).Where("status = ?", models.StatusPublished).Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}
	pagination := utils.NewPagination(page, postsPerPage, total)

	var posts []models.Post
	if err := h.db.Preload("Author").
		Where("status = ?", models.StatusPublished).
		Order("created_at DESC").
		Offset(pagination.Offset()).Limit(postsPerPage).
		Find(&posts).Error; err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "index.html", map[string]interface{}{
		"Posts":      posts,
		"Pagination": pagination,
	})
}

// CreatePost shows the new-post form and persists valid submissions. The
// author defaults to the signed-in user when the form leaves it blank.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, utils.LoginPath, http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "new_post.html", map[string]interface{}{
			"Form":   PostForm{Author: userID, Status: models.StatusDraft},
			"Errors": map[string]string{},
		})
		return
	}

	if err := utils.ParseForm(r); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	form := postFormFromRequest(r)
	if form.Author == 0 {
		form.Author = userID
	}
	fieldErrors := form.Validate()

	if len(fieldErrors) == 0 {
		var count int64
		if err := h.db.Model(&models.User{}).Where("id = ?", form.Author).Count(&count).Error; err != nil || count == 0 {
			fieldErrors["author"] = "Select a valid choice."
		}
	}
	if len(fieldErrors) == 0 {
		var count int64
		if err := h.db.Model(&models.Post{}).Where("slug = ?", form.Slug).Count(&count).Error; err != nil {
			http.Error(w, "Error creating post", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			fieldErrors["slug"] = "Post with this slug already exists."
		}
	}

	if len(fieldErrors) > 0 {
		h.render.Render(w, http.StatusOK, "new_post.html", map[string]interface{}{
			"Form":   form,
			"Errors": fieldErrors,
		})
		return
	}

	post := models.Post{
		Title:    form.Title,
		Slug:     form.Slug,
		AuthorID: form.Author,
		Excerpt:  form.Excerpt,
		Content:  form.Content,
		Status:   form.Status,
	}

	if file, header, err := r.FormFile("featured_image"); err == nil {
		defer file.Close()
		imageURL, err := utils.SaveImage(file, header, "featured")
		if err != nil {
			fieldErrors["featured_image"] = err.Error()
			h.render.Render(w, http.StatusOK, "new_post.html", map[string]interface{}{
				"Form":   form,
				"Errors": fieldErrors,
			})
			return
		}
		post.FeaturedImage = imageURL
	}

	if err := h.db.Create(&post).Error; err != nil {
		if post.FeaturedImage != "" {
			utils.DeleteImage(post.FeaturedImage)
		}
		log.Printf("create post: %v", err)
		http.Error(w, "Error creating post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/"+post.Slug+"/", http.StatusSeeOther)
}

// UpdatePost edits an existing post, owner-only.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	slug := mux.Vars(r)["slug"]

	var post models.Post
	if err := h.db.Where("slug = ?", slug).First(&post).Error; err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if post.AuthorID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "update_post.html", map[string]interface{}{
			"Post": post,
			"Form": PostForm{
				Title:   post.Title,
				Slug:    post.Slug,
				Author:  post.AuthorID,
				Excerpt: post.Excerpt,
				Content: post.Content,
				Status:  post.Status,
			},
			"Errors": map[string]string{},
		})
		return
	}

	if err := utils.ParseForm(r); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	form := postFormFromRequest(r)
	if form.Author == 0 {
		form.Author = post.AuthorID
	}
	fieldErrors := form.Validate()

	if len(fieldErrors) == 0 && form.Slug != post.Slug {
		var count int64
		if err := h.db.Model(&models.Post{}).Where("slug = ? AND id <> ?", form.Slug, post.ID).Count(&count).Error; err != nil {
			http.Error(w, "Error updating post", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			fieldErrors["slug"] = "Post with this slug already exists."
		}
	}

	if len(fieldErrors) > 0 {
		h.render.Render(w, http.StatusOK, "update_post.html", map[string]interface{}{
			"Post":   post,
			"Form":   form,
			"Errors": fieldErrors,
		})
		return
	}

	post.Title = form.Title
	post.Slug = form.Slug
	post.Excerpt = form.Excerpt
	post.Content = form.Content
	post.Status = form.Status

	if file, header, err := r.FormFile("featured_image"); err == nil {
		defer file.Close()
		imageURL, err := utils.SaveImage(file, header, "featured")
		if err != nil {
			fieldErrors["featured_image"] = err.Error()
			h.render.Render(w, http.StatusOK, "update_post.html", map[string]interface{}{
				"Post":   post,
				"Form":   form,
				"Errors": fieldErrors,
			})
			return
		}
		if post.FeaturedImage != "" {
			utils.DeleteImage(post.FeaturedImage)
		}
		post.FeaturedImage = imageURL
	}

	if err := h.db.Save(&post).Error; err != nil {
		log.Printf("update post: %v", err)
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/"+post.Slug+"/", http.StatusSeeOther)
}

// DeletePost confirms on GET, then deletes the post with its comments and
// likes, owner-only.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	slug := mux.Vars(r)["slug"]

	var post models.Post
	if err := h.db.Where("slug = ?", slug).First(&post).Error; err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if post.AuthorID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "delete_post.html", map[string]interface{}{
			"Post": post,
		})
		return
	}

	tx := h.db.Begin()

	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting likes", http.StatusInternalServerError)
		return
	}
	if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting comments", http.StatusInternalServerError)
		return
	}
	// Hard delete: a soft-deleted row would keep the slug locked in the
	// unique index.
	if err := tx.Unscoped().Delete(&post).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting post", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/posts/", http.StatusSeeOther)
}

// PostDetail renders a published post with its approved comments. POST
// submits a comment; the author name/email come from the session user,
// never from the request body.
func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var post models.Post
	if err := h.db.Preload("Author").
		Where("status = ? AND slug = ?", models.StatusPublished, slug).
		First(&post).Error; err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	liked := false
	userID, authErr := utils.GetUserIDFromContext(r.Context())
	if authErr == nil {
		var count int64
		h.db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", userID, post.ID).Count(&count)
		liked = count > 0
	}

	commented := false
	form := CommentForm{}
	fieldErrors := map[string]string{}

	if r.Method == http.MethodPost {
		if authErr != nil {
			http.Redirect(w, r, utils.LoginPath, http.StatusSeeOther)
			return
		}
		var user models.User
		if err := h.db.First(&user, userID).Error; err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if err := utils.ParseForm(r); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		form = commentFormFromRequest(r)
		fieldErrors = form.Validate()
		if len(fieldErrors) == 0 {
			comment := models.Comment{
				PostID: post.ID,
				Name:   user.Username,
				Email:  user.Email,
				Body:   form.Body,
			}
			if err := h.db.Create(&comment).Error; err != nil {
				http.Error(w, "Error creating comment", http.StatusInternalServerError)
				return
			}
			commented = true
			form = CommentForm{}
		}
	}

	var comments []models.Comment
	if err := h.db.Where("post_id = ? AND approved = ?", post.ID, true).
		Order("created_at DESC").Find(&comments).Error; err != nil {
		http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "post_detail.html", map[string]interface{}{
		"Post":      post,
		"Comments":  comments,
		"Commented": commented,
		"Liked":     liked,
		"Form":      form,
		"Errors":    fieldErrors,
	})
}

// PostLike toggles the session user's like on a post and redirects back to
// the detail page. The unique (user_id, post_id) index keeps concurrent
// toggles from inserting duplicate rows.
func (h *Handler) PostLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	slug := mux.Vars(r)["slug"]

	var post models.Post
	if err := h.db.Where("slug = ?", slug).First(&post).Error; err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	tx := h.db.Begin()

	result := tx.Where("user_id = ? AND post_id = ?", userID, post.ID).Delete(&models.Like{})
	if result.Error != nil {
		tx.Rollback()
		http.Error(w, "Error toggling like", http.StatusInternalServerError)
		return
	}

	if result.RowsAffected == 0 {
		like := models.Like{UserID: userID, PostID: post.ID}
		if err := tx.Create(&like).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error toggling like", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error toggling like", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/"+post.Slug+"/", http.StatusSeeOther)
}

// Profile shows and edits the session user's account and profile fields.
// Both forms must validate before either saves.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.profileFor(&user)
	if err != nil {
		http.Error(w, "Error loading profile", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "profile.html", map[string]interface{}{
			"User":    user,
			"Profile": profile,
			"UserForm": EditUserForm{
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
			},
			"ProfileForm": EditProfileForm{Bio: profile.Bio},
			"Errors":      map[string]string{},
			"Flash":       utils.PopFlash(w, r),
		})
		return
	}

	if err := utils.ParseForm(r); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	userForm := editUserFormFromRequest(r)
	profileForm := editProfileFormFromRequest(r)

	fieldErrors := userForm.Validate()
	for field, message := range profileForm.Validate() {
		fieldErrors[field] = message
	}

	if len(fieldErrors) > 0 {
		h.render.Render(w, http.StatusOK, "profile.html", map[string]interface{}{
			"User":        user,
			"Profile":     profile,
			"UserForm":    userForm,
			"ProfileForm": profileForm,
			"Errors":      fieldErrors,
			"Flash":       "",
		})
		return
	}

	avatarURL := ""
	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		avatarURL, err = utils.SaveImage(file, header, "avatars")
		if err != nil {
			h.render.Render(w, http.StatusOK, "profile.html", map[string]interface{}{
				"User":        user,
				"Profile":     profile,
				"UserForm":    userForm,
				"ProfileForm": profileForm,
				"Errors":      map[string]string{"avatar": err.Error()},
				"Flash":       "",
			})
			return
		}
	}

	tx := h.db.Begin()

	user.FirstName = userForm.FirstName
	user.LastName = userForm.LastName
	user.Email = userForm.Email
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating profile", http.StatusInternalServerError)
		return
	}

	profile.Bio = profileForm.Bio
	if avatarURL != "" {
		if profile.Avatar != "" {
			utils.DeleteImage(profile.Avatar)
		}
		profile.Avatar = avatarURL
	}
	if err := tx.Save(profile).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating profile", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error updating profile", http.StatusInternalServerError)
		return
	}

	utils.SetFlash(w, "Profile updated successfully")
	http.Redirect(w, r, "/profile/", http.StatusSeeOther)
}

// profileFor loads the user's profile, creating an empty row when a user
// predates the profile table.
func (h *Handler) profileFor(user *models.User) (*models.Profile, error) {
	var profile models.Profile
	err := h.db.Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.Profile{UserID: user.ID}
		if err := h.db.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
