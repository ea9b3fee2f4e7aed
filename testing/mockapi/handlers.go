package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userContextKey = "mockapi.user"

func (s *Server) registerRoutes(g *echo.Group) {
	g.GET("/health", s.health)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)
	g.GET("/floors", s.listFloors)
	g.GET("/employees", s.listEmployees)
	g.GET("/employees/registered-faces", s.registeredFaces)
	g.POST("/employees/register", s.registerEmployee)
	g.POST("/employees/:id/register-face", s.registerFace)
	g.GET("/cameras", s.listCameras)
	g.GET("/cameras/:id", s.getCamera)
	g.GET("/alerts", s.listAlerts)
	g.POST("/alerts/fire", s.fireAlert)
	g.POST("/presence/update-floor", s.updateFloorPresence)
	g.GET("/presence/floor-live/:floor_id", s.floorLive)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (s *Server) authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := s.relativePath(c.Request())
			s.mu.Lock()
			user, ok := s.tokens[bearerToken(c.Request())]
			s.mu.Unlock()
			if ok {
				c.Set(userContextKey, user)
			}
			public := path == "/health" || path == "/login"
			if !ok && !public && (s.authRequired || path == "/logout") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			}
			return next(c)
		}
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.Users {
		if strings.EqualFold(u.Email, req.Email) && u.Password == req.Password {
			token := uuid.NewString()
			s.tokens[token] = u
			return c.JSON(http.StatusOK, map[string]any{"token": token, "user": u})
		}
	}
	return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "Invalid credentials"})
}

func (s *Server) logout(c echo.Context) error {
	s.mu.Lock()
	delete(s.tokens, bearerToken(c.Request()))
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// ActiveTokens returns the number of issued tokens not yet revoked.
func (s *Server) ActiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *Server) listFloors(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.data.Floors)
}

func (s *Server) listEmployees(c echo.Context) error {
	var floorID *int
	if raw := c.QueryParam("floor_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"detail": "floor_id must be an integer"})
		}
		floorID = &id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Employee, 0, len(s.data.Employees))
	for _, e := range s.data.Employees {
		if floorID == nil || (e.FloorID != nil && *e.FloorID == *floorID) {
			out = append(out, e)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) registeredFaces(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Employee, 0)
	for _, e := range s.data.Employees {
		if e.FaceEmbedding != "" {
			out = append(out, e)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": out})
}

func (s *Server) registerEmployee(c echo.Context) error {
	reg := registration{
		Name:     c.FormValue("name"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		FloorID:  c.FormValue("floor_id"),
	}
	if fh, err := c.FormFile("photo"); err == nil {
		reg.Photo = fh.Filename
		reg.PhotoSize = fh.Size
	}
	if err := s.validate.Struct(reg); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationBody(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	emp := Employee{
		ID:        s.nextEmployeeID(),
		Name:      reg.Name,
		Email:     reg.Email,
		PhotoPath: "photos/" + reg.Photo,
	}
	if reg.FloorID != "" {
		id, _ := strconv.Atoi(reg.FloorID)
		emp.FloorID = &id
	}
	s.data.Employees = append(s.data.Employees, emp)
	return c.JSON(http.StatusCreated, map[string]any{
		"message":  "Employee registered successfully",
		"employee": emp,
	})
}

func (s *Server) nextEmployeeID() int {
	next := 1
	for _, e := range s.data.Employees {
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	return next
}

type faceRequest struct {
	Embedding  []float64 `json:"embedding"`
	Confidence float64   `json:"confidence"`
	FloorID    *int      `json:"floor_id"`
}

func (s *Server) registerFace(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Employee not found")
	}
	var req faceRequest
	if err := c.Bind(&req); err != nil || len(req.Embedding) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "The embedding field is required."})
	}
	encoded, _ := json.Marshal(req.Embedding)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Employees {
		if s.data.Employees[i].ID == id {
			s.data.Employees[i].FaceEmbedding = string(encoded)
			if req.FloorID != nil {
				s.data.Employees[i].FloorID = req.FloorID
			}
			return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Face registered"})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Employee not found")
}

func (s *Server) listCameras(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"data": s.data.Cameras})
}

func (s *Server) getCamera(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Camera not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.data.Cameras {
		if cam.ID == id {
			return c.JSON(http.StatusOK, map[string]any{"data": cam})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Camera not found")
}

func (s *Server) listAlerts(c echo.Context) error {
	status := c.QueryParam("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, 0, len(s.data.Alerts))
	for _, a := range s.data.Alerts {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": out})
}

type fireAlertRequest struct {
	CameraID   *int    `json:"camera_id"`
	FloorID    *int    `json:"floor_id"`
	Room       string  `json:"room"`
	EventType  string  `json:"event_type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	DetectedAt string  `json:"detected_at"`
}

func (s *Server) fireAlert(c echo.Context) error {
	var req fireAlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body")
	}
	if req.FloorID == nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "The floor_id field is required."})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	alert := Alert{
		ID:         len(s.data.Alerts) + 1,
		CameraID:   req.CameraID,
		FloorID:    *req.FloorID,
		Room:       req.Room,
		EventType:  req.EventType,
		Severity:   req.Severity,
		Confidence: req.Confidence,
		Status:     "active",
		DetectedAt: req.DetectedAt,
	}
	s.data.Alerts = append(s.data.Alerts, alert)
	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Fire alert %d created", alert.ID),
	})
}

type presenceRequest struct {
	FloorID int      `json:"floor_id"`
	People  []Person `json:"people"`
}

func (s *Server) updateFloorPresence(c echo.Context) error {
	var req presenceRequest
	if err := c.Bind(&req); err != nil || req.FloorID == 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "The floor_id field is required."})
	}
	s.mu.Lock()
	s.presence[req.FloorID] = append([]Person(nil), req.People...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Presence updated"})
}

func (s *Server) floorLive(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("floor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Floor not found")
	}
	s.mu.Lock()
	people := append([]Person{}, s.presence[id]...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{
		"current_count":  len(people),
		"current_people": people,
	})
}

// Alerts returns the current alert list.
func (s *Server) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.data.Alerts...)
}

// Employees returns the current employee list.
func (s *Server) Employees() []Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Employee(nil), s.data.Employees...)
}
