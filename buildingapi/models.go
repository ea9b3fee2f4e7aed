package buildingapi

import "time"

// Floor is one level of the building.
type Floor struct {
	ID          int    `json:"id" yaml:"id"`
	FloorNumber int    `json:"floor_number" yaml:"floor_number"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Employee is a person registered in the building directory.
type Employee struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	FloorID   *int   `json:"floor_id,omitempty" yaml:"floor_id,omitempty"`
	Floor     *Floor `json:"floor,omitempty" yaml:"floor,omitempty"`
	PhotoPath string `json:"photo_path,omitempty" yaml:"photo_path,omitempty"`
	// FaceEmbedding is the JSON-encoded vector stored by the face service.
	FaceEmbedding string `json:"face_embedding,omitempty" yaml:"-"`
}

// User is the identity record stored in the session at login.
type User struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
}

// LoginResult is returned by POST /login.
type LoginResult struct {
	Token string `json:"token" yaml:"-"`
	User  User   `json:"user" yaml:"user"`
}

// Camera is a video source assigned to a floor.
type Camera struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	FloorID   *int   `json:"floor_id,omitempty" yaml:"floor_id,omitempty"`
	Floor     *Floor `json:"floor,omitempty" yaml:"floor,omitempty"`
	Room      string `json:"room,omitempty" yaml:"room,omitempty"`
	StreamURL string `json:"stream_url,omitempty" yaml:"stream_url,omitempty"`
	RTSPURL   string `json:"rtsp_url,omitempty" yaml:"rtsp_url,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Source returns the stream URL, falling back to the RTSP URL.
func (c Camera) Source() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	return c.RTSPURL
}

// Alert statuses accepted by ListAlerts.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// Alert is a detection event raised by a camera.
type Alert struct {
	ID         int     `json:"id" yaml:"id"`
	CameraID   *int    `json:"camera_id,omitempty" yaml:"camera_id,omitempty"`
	FloorID    int     `json:"floor_id" yaml:"floor_id"`
	Room       string  `json:"room,omitempty" yaml:"room,omitempty"`
	EventType  string  `json:"event_type" yaml:"event_type"`
	Severity   string  `json:"severity" yaml:"severity"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Status     string  `json:"status" yaml:"status"`
	DetectedAt string  `json:"detected_at,omitempty" yaml:"detected_at,omitempty"`
}

// FireAlert is the payload of POST /alerts/fire. Confidence is a percentage.
type FireAlert struct {
	CameraID       *int      `json:"camera_id"`
	CameraName     string    `json:"camera_name"`
	FloorID        *int      `json:"floor_id"`
	Room           string    `json:"room"`
	EventType      string    `json:"event_type"`
	Severity       string    `json:"severity"`
	Confidence     float64   `json:"confidence"`
	FireType       string    `json:"fire_type"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	DetectedAt     time.Time `json:"detected_at"`
}

// FaceEmbedding is the payload of POST /employees/{id}/register-face.
type FaceEmbedding struct {
	Embedding    []float64 `json:"embedding"`
	Confidence   float64   `json:"confidence"`
	BBox         []int     `json:"bbox,omitempty"`
	ImageData    string    `json:"image_data,omitempty"`
	FloorID      *int      `json:"floor_id,omitempty"`
	RoomLocation string    `json:"room_location,omitempty"`
}

// PresentPerson is one sighting reported for a floor.
type PresentPerson struct {
	EmployeeID int       `json:"employee_id" yaml:"employee_id"`
	Name       string    `json:"name" yaml:"name"`
	CameraID   int       `json:"camera_id" yaml:"camera_id"`
	LastSeen   time.Time `json:"last_seen" yaml:"last_seen"`
}

// FloorPresence is the payload of POST /presence/update-floor.
type FloorPresence struct {
	FloorID   int             `json:"floor_id"`
	People    []PresentPerson `json:"people"`
	Timestamp time.Time       `json:"timestamp"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Message is the generic acknowledgement body returned by write endpoints.
type Message struct {
	Success bool   `json:"success,omitempty" yaml:"success,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// RegistrationResult is returned by POST /employees/register.
type RegistrationResult struct {
	Message  string    `json:"message" yaml:"message"`
	Employee *Employee `json:"employee,omitempty" yaml:"employee,omitempty"`
}

// Snapshot is a consistent-enough view of the building assembled from
// concurrent reads.
type Snapshot struct {
	Floors       []Floor    `json:"floors" yaml:"floors"`
	Employees    []Employee `json:"employees" yaml:"employees"`
	ActiveAlerts []Alert    `json:"active_alerts" yaml:"active_alerts"`
}

// FloorLive is the current presence list of one floor.
type FloorLive struct {
	CurrentCount  int             `json:"current_count" yaml:"current_count"`
	CurrentPeople []PresentPerson `json:"current_people" yaml:"current_people"`
}
