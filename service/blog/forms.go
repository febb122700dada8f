package blog

import (
	"net/http"
	"strconv"

	"github.com/KNartey/Inkwell-server/cmd/utils"
)

// PostForm carries the editable post fields. The featured image file is
// handled separately because it only persists once the fields validate.
type PostForm struct {
	Title   string `validate:"required,max=200"`
	Slug    string `validate:"required,max=200,slug"`
	Author  uint
	Excerpt string `validate:"max=500"`
	Content string `validate:"required"`
	Status  int    `validate:"oneof=0 1"`
}

func postFormFromRequest(r *http.Request) PostForm {
	author, _ := strconv.ParseUint(r.PostFormValue("author"), 10, 64)
	status, _ := strconv.Atoi(r.PostFormValue("status"))
	return PostForm{
		Title:   r.PostFormValue("title"),
		Slug:    r.PostFormValue("slug"),
		Author:  uint(author),
		Excerpt: r.PostFormValue("excerpt"),
		Content: r.PostFormValue("content"),
		Status:  status,
	}
}

func (f PostForm) Validate() map[string]string {
	return utils.ValidateStruct(f)
}

type CommentForm struct {
	Body string `validate:"required,max=2000"`
}

func commentFormFromRequest(r *http.Request) CommentForm {
	return CommentForm{Body: r.PostFormValue("body")}
}

func (f CommentForm) Validate() map[string]string {
	return utils.ValidateStruct(f)
}

type EditUserForm struct {
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	Email     string `validate:"required,email"`
}

func editUserFormFromRequest(r *http.Request) EditUserForm {
	return EditUserForm{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}
}

func (f EditUserForm) Validate() map[string]string {
	return utils.ValidateStruct(f)
}

type EditProfileForm struct {
	Bio string `validate:"max=1000"`
}

func editProfileFormFromRequest(r *http.Request) EditProfileForm {
	return EditProfileForm{Bio: r.PostFormValue("bio")}
}

func (f EditProfileForm) Validate() map[string]string {
	return utils.ValidateStruct(f)
}
