// handlers/auth.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
	"p9e.in/agrisurvey/pkg/survey"
)

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userPayload struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
}

func userOut(u models.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
	}
}

// Register is the public self-registration endpoint. Whatever role the
// payload carries is ignored: self-registered accounts are always
// enumerators, only the admin user endpoints assign roles.
func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if err := validateUserReq(req); err != nil {
		respondError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, err)
		return
	}
	u := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         models.RoleEnumerator,
		IsActive:     true,
	}
	if err := config.DB.Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
			writeJSON(w, http.StatusConflict, errorBody{Error: "username or email already taken"})
		} else {
			respondError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, userOut(u))
}

func validateUserReq(req registerReq) error {
	if req.Username == "" {
		return survey.NewValidationError("username", "username is required")
	}
	if req.Email == "" {
		return survey.NewValidationError("email", "email is required")
	}
	if len(req.Password) < 8 {
		return survey.NewValidationError("password", "password must be at least 8 characters")
	}
	return nil
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	var u models.User
	err := config.DB.
		Where("username = ? OR email = ?", req.Username, req.Username).
		Where("is_active = ?", true).
		First(&u).Error
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := middleware.GenerateToken(u.ID.String(), u.Role, u.Name, u.Username)
	if err != nil {
		http.Error(w, "couldn't create token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: token, User: userOut(u)})
}

// GetCurrentUser returns the account behind the bearer token.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var user models.User
	if err := config.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		respondError(w, survey.NewNotFoundError("user"))
		return
	}
	writeJSON(w, http.StatusOK, userOut(user))
}

// CreateUser is the admin-side account creation with an explicit role.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if err := validateUserReq(req); err != nil {
		respondError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleEnumerator
	}
	if !models.IsValidRole(req.Role) {
		respondError(w, survey.NewValidationError("role",
			"invalid role, choose from: "+strings.Join(models.ValidRoles(), ", ")))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, err)
		return
	}
	u := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := config.DB.Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
			writeJSON(w, http.StatusConflict, errorBody{Error: "username or email already taken"})
		} else {
			respondError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, userOut(u))
}

func GetAllUsers(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := (page - 1) * limit

	q := config.DB.Model(&models.User{}).Where("is_active = ?", true)
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(w, err)
		return
	}
	var users []models.User
	if err := q.Order("username").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		respondError(w, err)
		return
	}

	out := make([]userPayload, len(users))
	for i, u := range users {
		out[i] = userOut(u)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  out,
	})
}

func GetUserByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var user models.User
	if err := config.DB.First(&user, "id = ?", id).Error; err != nil {
		respondError(w, survey.NewNotFoundError("user"))
		return
	}
	writeJSON(w, http.StatusOK, userOut(user))
}

type updateUserReq struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// UpdateUser lets an admin change account details, including role.
// Role changes only happen here; nothing else in the API writes roles.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var user models.User
	if err := config.DB.First(&user, "id = ?", id).Error; err != nil {
		respondError(w, survey.NewNotFoundError("user"))
		return
	}

	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, survey.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !models.IsValidRole(*req.Role) {
			respondError(w, survey.NewValidationError("role",
				"invalid role, choose from: "+strings.Join(models.ValidRoles(), ", ")))
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			respondError(w, survey.NewValidationError("password", "password must be at least 8 characters"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(w, err)
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userOut(user))
}

// DeleteUser removes an account. Routes assigned to the user go with
// it; the cascade is a schema-level FK and is intentional.
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == middleware.GetUserID(r) {
		respondError(w, survey.NewValidationError("id", "cannot delete your own account"))
		return
	}
	result := config.DB.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		respondError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, survey.NewNotFoundError("user"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
