package mockapi

// Floor is the server-side floor record.
type Floor struct {
	ID          int    `json:"id"`
	FloorNumber int    `json:"floor_number"`
	Name        string `json:"name"`
}

// Employee is the server-side employee record.
type Employee struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	FloorID       *int   `json:"floor_id,omitempty"`
	PhotoPath     string `json:"photo_path,omitempty"`
	FaceEmbedding string `json:"face_embedding,omitempty"`
}

// Camera is the server-side camera record.
type Camera struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	FloorID   *int   `json:"floor_id,omitempty"`
	Room      string `json:"room,omitempty"`
	StreamURL string `json:"stream_url,omitempty"`
	Status    string `json:"status"`
}

// Alert is the server-side alert record.
type Alert struct {
	ID         int     `json:"id"`
	CameraID   *int    `json:"camera_id,omitempty"`
	FloorID    int     `json:"floor_id"`
	Room       string  `json:"room,omitempty"`
	EventType  string  `json:"event_type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
	DetectedAt string  `json:"detected_at,omitempty"`
}

// User is an account accepted by POST /login.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Password string `json:"-"`
}

// Person is one entry of a floor's live presence list.
type Person struct {
	EmployeeID int    `json:"employee_id"`
	Name       string `json:"name"`
	CameraID   int    `json:"camera_id"`
	LastSeen   string `json:"last_seen"`
}

// Fixtures is the in-memory dataset served by the mock.
type Fixtures struct {
	Floors    []Floor
	Employees []Employee
	Cameras   []Camera
	Alerts    []Alert
	Users     []User
}

func intPtr(v int) *int { return &v }

// DefaultFixtures returns a small building with two floors.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Floors: []Floor{
			{ID: 1, FloorNumber: 0, Name: "Ground"},
			{ID: 2, FloorNumber: 1, Name: "First"},
		},
		Employees: []Employee{
			{ID: 1, Name: "Ana Ruiz", Email: "ana@example.com", FloorID: intPtr(1)},
			{ID: 2, Name: "Ben Osei", Email: "ben@example.com", FloorID: intPtr(2)},
			{ID: 3, Name: "Chen Li", FloorID: intPtr(2), FaceEmbedding: "[0.1,0.2,0.3]"},
		},
		Cameras: []Camera{
			{ID: 1, Name: "Lobby", FloorID: intPtr(1), Room: "Lobby", StreamURL: "rtsp://cam1/stream", Status: "active"},
			{ID: 2, Name: "Kitchen", FloorID: intPtr(2), Room: "Kitchen", StreamURL: "rtsp://cam2/stream", Status: "active"},
		},
		Alerts: []Alert{
			{ID: 1, CameraID: intPtr(2), FloorID: 2, Room: "Kitchen", EventType: "fire", Severity: "high", Confidence: 87.5, Status: "active"},
			{ID: 2, CameraID: intPtr(1), FloorID: 1, Room: "Lobby", EventType: "fire", Severity: "low", Confidence: 55, Status: "resolved"},
		},
		Users: []User{
			{ID: 1, Name: "Admin", Email: "admin@example.com", Role: "admin", Password: "secret123"},
		},
	}
}

func (f Fixtures) clone() Fixtures {
	return Fixtures{
		Floors:    append([]Floor(nil), f.Floors...),
		Employees: append([]Employee(nil), f.Employees...),
		Cameras:   append([]Camera(nil), f.Cameras...),
		Alerts:    append([]Alert(nil), f.Alerts...),
		Users:     append([]User(nil), f.Users...),
	}
}
