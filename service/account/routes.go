package account

import (
	"log"
	"net/http"
	"time"

	"github.com/KNartey/Inkwell-server/cmd/models"
	"github.com/KNartey/Inkwell-server/cmd/utils"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTTL = 7 * 24 * time.Hour

type Handler struct {
	db     *gorm.DB
	render *utils.Renderer
}

func NewHandler(db *gorm.DB, render *utils.Renderer) *Handler {
	return &Handler{db: db, render: render}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/register", h.Register).Methods("GET", "POST").Name("register")
	router.HandleFunc("/accounts/login", h.Login).Methods("GET", "POST").Name("login")
	router.HandleFunc("/accounts/logout", h.Logout).Methods("GET", "POST").Name("logout")
}

type RegisterForm struct {
	Username        string `validate:"required,max=150,alphanum"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Register creates a user with a hashed password and their profile row,
// then signs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "register.html", map[string]interface{}{
			"Form":   RegisterForm{},
			"Errors": map[string]string{},
		})
		return
	}

	if err := utils.ParseForm(r); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	form := RegisterForm{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	fieldErrors := utils.ValidateStruct(form)

	if len(fieldErrors) == 0 {
		var count int64
		if err := h.db.Model(&models.User{}).Where("username = ?", form.Username).Count(&count).Error; err != nil {
			http.Error(w, "Error creating account", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			fieldErrors["username"] = "A user with that username already exists."
		}
	}

	if len(fieldErrors) > 0 {
		h.render.Render(w, http.StatusOK, "register.html", map[string]interface{}{
			"Form":   form,
			"Errors": fieldErrors,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error creating account", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: string(hash),
	}

	tx := h.db.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		log.Printf("register: %v", err)
		http.Error(w, "Error creating account", http.StatusInternalServerError)
		return
	}
	if err := tx.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating account", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error creating account", http.StatusInternalServerError)
		return
	}

	if err := h.signIn(w, user.ID); err != nil {
		http.Redirect(w, r, utils.LoginPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/posts/", http.StatusSeeOther)
}

// Login verifies credentials and installs the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "login.html", map[string]interface{}{
			"Form":   LoginForm{},
			"Errors": map[string]string{},
		})
		return
	}

	if err := utils.ParseForm(r); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	form := LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	fieldErrors := utils.ValidateStruct(form)

	if len(fieldErrors) == 0 {
		var user models.User
		err := h.db.Where("username = ?", form.Username).First(&user).Error
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)) != nil {
			fieldErrors["form"] = "Invalid username or password."
		} else {
			if err := h.signIn(w, user.ID); err != nil {
				http.Error(w, "Error signing in", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/posts/", http.StatusSeeOther)
			return
		}
	}

	h.render.Render(w, http.StatusOK, "login.html", map[string]interface{}{
		"Form":   form,
		"Errors": fieldErrors,
	})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) signIn(w http.ResponseWriter, userID uint) error {
	token, err := utils.NewSessionToken(userID, sessionTTL)
	if err != nil {
		return err
	}
	utils.SetSessionCookie(w, token, sessionTTL)
	return nil
}
