package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/models"
)

// RegisterRequest represents a student sign-up
type RegisterRequest struct {
	Name           string `json:"name" binding:"required" validate:"max=100"`
	Phone          string `json:"phone" binding:"required" validate:"phone"`
	Password       string `json:"password" binding:"required" validate:"min=6,max=72"`
	EnrollmentYear int    `json:"enrollmentYear" validate:"omitempty,min=2000,max=2100"`
	ClassNumber    int    `json:"classNumber" validate:"omitempty,min=1,max=99"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the token and the student profile
type LoginResponse struct {
	Token string         `json:"token"`
	User  *StudentDetail `json:"user"`
}

// StudentDetail represents student information returned in responses
type StudentDetail struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	IsAdmin        bool      `json:"isAdmin"`
	EnrollmentYear int       `json:"enrollmentYear"`
	ClassNumber    int       `json:"classNumber"`
	TotalHours     float64   `json:"totalHours"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UpdateProfileRequest holds optional profile changes
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,phone"`
	Password       *string `json:"password" validate:"omitempty,min=6,max=72"`
	EnrollmentYear *int    `json:"enrollmentYear" validate:"omitempty,min=2000,max=2100"`
	ClassNumber    *int    `json:"classNumber" validate:"omitempty,min=1,max=99"`
}

func newStudentDetail(student *models.Student) *StudentDetail {
	return &StudentDetail{
		ID:             student.ID,
		Name:           student.Name,
		Phone:          student.Phone,
		IsAdmin:        student.IsAdmin,
		EnrollmentYear: student.EnrollmentYear,
		ClassNumber:    student.ClassNumber,
		TotalHours:     student.TotalHours,
		CreatedAt:      student.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// @Summary Register
// @Description Create a student account and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	student := &models.Student{
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		PasswordHash:   passwordHash,
		EnrollmentYear: req.EnrollmentYear,
		ClassNumber:    req.ClassNumber,
	}
	if err := s.db.Create(student).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Phone number already registered"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := auth.GenerateToken(student.ID, student.Phone, student.IsAdmin)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", student.ID).Str("phone", student.Phone).Msg("Student registered")

	c.JSON(http.StatusCreated, LoginResponse{Token: token, User: newStudentDetail(student)})
}

// @Summary Login
// @Description Authenticate with phone and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var student models.Student
	if err := s.db.Where("phone = ?", req.Phone).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, student.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
		return
	}

	token, err := auth.GenerateToken(student.ID, student.Phone, student.IsAdmin)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", student.ID).Bool("is_admin", student.IsAdmin).Msg("Student logged in")

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: newStudentDetail(&student)})
}

// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StudentDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var student models.Student
	if err := models.FindByID(s.db, sessionData.UserID, &student); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, newStudentDetail(&student))
}

// @Summary Update current user
// @Description Partially update the signed-in student's profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile changes"
// @Success 200 {object} StudentDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/me [patch]
func (s *Server) updateCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	var student models.Student
	if err := models.FindByID(s.db, sessionData.UserID, &student); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.EnrollmentYear != nil {
		student.EnrollmentYear = *req.EnrollmentYear
	}
	if req.ClassNumber != nil {
		student.ClassNumber = *req.ClassNumber
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		student.PasswordHash = hash
	}

	if err := s.db.Save(&student).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Phone number already registered"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to update student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	s.logger.Info().Str("user_id", student.ID).Msg("Profile updated")

	c.JSON(http.StatusOK, newStudentDetail(&student))
}
