// Package api is the HTTP boundary: signup/login, class and student CRUD,
// and the session-start request that feeds the attendance coordinator.
// No business logic lives here, only HTTP handling and JSON serialization.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"rollcall/internal/auth"
	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// ClassDirectory is the class collection as the API needs it: resolution
// plus the create/update operations the ClassStore interface does not carry.
type ClassDirectory interface {
	interfaces.ClassStore
	CreateClass(ctx context.Context, class *types.Class) error
	AddStudent(ctx context.Context, classID, studentID string) (*types.Class, error)
}

// HealthChecker reports store liveness for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server wires the HTTP routes. Responses use the
// {success, data} / {success:false, error} envelope throughout.
type Server struct {
	authService *auth.Service
	users       interfaces.UserStore
	classes     ClassDirectory
	attendance  interfaces.AttendanceStore
	coordinator *session.Coordinator
	health      HealthChecker
	validate    *validator.Validate
	router      *http.ServeMux
}

func NewServer(
	authService *auth.Service,
	users interfaces.UserStore,
	classes ClassDirectory,
	attendance interfaces.AttendanceStore,
	coordinator *session.Coordinator,
	health HealthChecker,
) *Server {
	s := &Server{
		authService: authService,
		users:       users,
		classes:     classes,
		attendance:  attendance,
		coordinator: coordinator,
		health:      health,
		validate:    validator.New(),
		router:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/auth/signup", s.handleSignup)
	s.router.HandleFunc("/auth/login", s.handleLogin)
	s.router.HandleFunc("/auth/me", s.handleMe)
	s.router.HandleFunc("/students", s.requireRole(types.RoleTeacher, s.handleListStudents))
	s.router.HandleFunc("/class", s.requireRole(types.RoleTeacher, s.handleCreateClass))
	s.router.HandleFunc("/class/", s.handleClassByID)
	s.router.HandleFunc("/attendance/start", s.requireRole(types.RoleTeacher, s.handleStartAttendance))
	s.router.HandleFunc("/health", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Request schemas, validated before any store access.

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=teacher student"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createClassRequest struct {
	ClassName string `json:"classname" validate:"required,min=1,max=200"`
}

type addStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

type startAttendanceRequest struct {
	ClassID string `json:"classId" validate:"required"`
}

// decodeValid decodes the body into dst and runs schema validation.
func (s *Server) decodeValid(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req signupRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	user, err := s.authService.Signup(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			s.sendError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		s.internalError(w, err)
		return
	}
	s.sendData(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req loginRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	token, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.sendError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		s.internalError(w, err)
		return
	}
	s.sendData(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		s.sendError(w, http.StatusUnauthorized, MsgUnauthorized)
		return
	}
	user, err := s.authService.Me(r.Context(), token)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			s.sendError(w, http.StatusNotFound, "User not found.")
			return
		}
		s.sendError(w, http.StatusUnauthorized, MsgUnauthorized)
		return
	}
	s.sendData(w, http.StatusOK, user)
}

// studentSummary is the directory view of an account: no credentials.
type studentSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request, _ types.Identity) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	students, err := s.users.ListStudents(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	summaries := make([]studentSummary, 0, len(students))
	for _, student := range students {
		summaries = append(summaries, studentSummary{ID: student.ID, Name: student.Name, Email: student.Email})
	}
	s.sendData(w, http.StatusOK, summaries)
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request, identity types.Identity) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req createClassRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	class := &types.Class{
		ID:        uuid.New().String(),
		ClassName: req.ClassName,
		TeacherID: identity.UserID,
	}
	if err := s.classes.CreateClass(r.Context(), class); err != nil {
		s.internalError(w, err)
		return
	}
	s.sendData(w, http.StatusCreated, class)
}

// handleClassByID serves the /class/{id} subtree:
// GET  /class/{id}                teacher  class details with roster members
// POST /class/{id}/add-student    teacher  append to roster
// GET  /class/{id}/my-attendance  student  persisted record lookup
func (s *Server) handleClassByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/class/")
	segments := strings.Split(path, "/")
	classID := segments[0]
	if classID == "" {
		s.sendError(w, http.StatusBadRequest, "Class ID required")
		return
	}

	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.requireRole(types.RoleTeacher, func(w http.ResponseWriter, r *http.Request, identity types.Identity) {
			s.getClassDetails(w, r, classID)
		})(w, r)
	case len(segments) == 2 && segments[1] == "add-student" && r.Method == http.MethodPost:
		s.requireRole(types.RoleTeacher, func(w http.ResponseWriter, r *http.Request, identity types.Identity) {
			s.addStudent(w, r, classID)
		})(w, r)
	case len(segments) == 2 && segments[1] == "my-attendance" && r.Method == http.MethodGet:
		s.requireRole(types.RoleStudent, func(w http.ResponseWriter, r *http.Request, identity types.Identity) {
			s.getMyAttendance(w, r, classID, identity.UserID)
		})(w, r)
	default:
		s.sendError(w, http.StatusNotFound, "Route not found")
	}
}

// classDetails is a class with its roster resolved to member summaries.
type classDetails struct {
	ID        string           `json:"id"`
	ClassName string           `json:"className"`
	TeacherID string           `json:"teacherId"`
	Students  []studentSummary `json:"students"`
}

func (s *Server) getClassDetails(w http.ResponseWriter, r *http.Request, classID string) {
	class, err := s.classes.GetClass(r.Context(), classID)
	if err != nil {
		if errors.Is(err, interfaces.ErrClassNotFound) {
			s.sendError(w, http.StatusNotFound, "Class not found")
			return
		}
		s.internalError(w, err)
		return
	}

	details := classDetails{
		ID:        class.ID,
		ClassName: class.ClassName,
		TeacherID: class.TeacherID,
		Students:  make([]studentSummary, 0, len(class.StudentIDs)),
	}
	for _, studentID := range class.StudentIDs {
		student, err := s.users.GetUser(r.Context(), studentID)
		if err != nil {
			// A deleted account leaves a dangling roster entry; skip it.
			continue
		}
		details.Students = append(details.Students, studentSummary{ID: student.ID, Name: student.Name, Email: student.Email})
	}
	s.sendData(w, http.StatusOK, details)
}

func (s *Server) addStudent(w http.ResponseWriter, r *http.Request, classID string) {
	var req addStudentRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	if _, err := s.users.GetUser(r.Context(), req.StudentID); err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			s.sendError(w, http.StatusNotFound, "User not found.")
			return
		}
		s.internalError(w, err)
		return
	}

	class, err := s.classes.AddStudent(r.Context(), classID, req.StudentID)
	if err != nil {
		if errors.Is(err, interfaces.ErrClassNotFound) {
			s.sendError(w, http.StatusNotFound, "Class not found")
			return
		}
		s.internalError(w, err)
		return
	}
	s.sendData(w, http.StatusCreated, class)
}

func (s *Server) getMyAttendance(w http.ResponseWriter, r *http.Request, classID, studentID string) {
	record, err := s.attendance.GetRecord(r.Context(), classID, studentID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRecordNotFound) {
			s.sendData(w, http.StatusOK, map[string]interface{}{"classId": classID, "status": nil})
			return
		}
		s.internalError(w, err)
		return
	}
	s.sendData(w, http.StatusOK, map[string]interface{}{"classId": record.ClassID, "status": record.Status})
}

// handleStartAttendance opens the singleton session. The caller must own
// the class; the open unconditionally replaces any prior session.
func (s *Server) handleStartAttendance(w http.ResponseWriter, r *http.Request, identity types.Identity) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req startAttendanceRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	class, err := s.classes.GetClass(r.Context(), req.ClassID)
	if err != nil {
		if errors.Is(err, interfaces.ErrClassNotFound) {
			s.sendError(w, http.StatusNotFound, "Class not found")
			return
		}
		s.internalError(w, err)
		return
	}
	if class.TeacherID != identity.UserID {
		s.sendError(w, http.StatusForbidden, MsgTeacherRequired)
		return
	}

	info := s.coordinator.Open(class.ID, identity.UserID)
	log.Printf("Attendance session opened: class=%s teacher=%s", info.ClassID, info.TeacherID)
	s.sendData(w, http.StatusOK, map[string]interface{}{
		"classId":   info.ClassID,
		"startedAt": info.StartedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		s.sendError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	s.sendData(w, http.StatusOK, map[string]string{"message": "Server is running!"})
}
