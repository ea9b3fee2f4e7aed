package buildingapi

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/gaborage/facility-client/httpclient"
)

const registrationFailed = "Registration failed"

// ListFloors returns every floor.
func (c *Client) ListFloors(ctx context.Context) ([]Floor, error) {
	return getJSON[[]Floor](ctx, c, &httpclient.Request{Path: "/floors"})
}

// ListEmployees returns employees, restricted to one floor when floorID is set.
func (c *Client) ListEmployees(ctx context.Context, floorID *int) ([]Employee, error) {
	req := &httpclient.Request{Path: "/employees"}
	if floorID != nil {
		req.Query = url.Values{"floor_id": []string{strconv.Itoa(*floorID)}}
	}
	return getJSON[[]Employee](ctx, c, req)
}

// RegistrationForm is the multipart payload of POST /employees/register.
// Validation happens server-side; the form is transmitted as given.
type RegistrationForm struct {
	Name     string
	Email    string
	Password string
	FloorID  *int
	Photo    *Photo
}

func (f RegistrationForm) multipart() *httpclient.Multipart {
	form := httpclient.NewMultipart().
		AddField("name", f.Name).
		AddField("password", f.Password)
	if f.Email != "" {
		form.AddField("email", f.Email)
	}
	if f.FloorID != nil {
		form.AddField("floor_id", strconv.Itoa(*f.FloorID))
	}
	if f.Photo != nil {
		form.AddFile(f.Photo.formFile())
	}
	return form
}

// RegisterEmployee uploads a new employee with their photo. The encoded
// body is built once so retries resend identical bytes.
func (c *Client) RegisterEmployee(ctx context.Context, form RegistrationForm) (*RegistrationResult, error) {
	req, err := httpclient.NewMultipartRequest("/employees/register", form.multipart())
	if err != nil {
		return nil, err
	}
	req.FailureMessage = registrationFailed

	result, err := request[RegistrationResult](ctx, c, nethttp.MethodPost, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("name", form.Name).Msg("Employee registered")
	return &result, nil
}

// HealthCheck calls GET /health.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	h, err := getJSON[Health](ctx, c, &httpclient.Request{Path: "/health"})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListRegisteredFaces returns employees that have a stored face embedding.
func (c *Client) ListRegisteredFaces(ctx context.Context) ([]Employee, error) {
	env, err := getJSON[dataEnvelope[[]Employee]](ctx, c, &httpclient.Request{Path: "/employees/registered-faces"})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// RegisterFaceEmbedding stores a face vector for an existing employee.
func (c *Client) RegisterFaceEmbedding(ctx context.Context, employeeID int, face FaceEmbedding) (*Message, error) {
	if employeeID <= 0 {
		return nil, httpclient.NewValidationError("employee id must be positive", "employee_id")
	}
	if len(face.Embedding) == 0 {
		return nil, httpclient.NewValidationError("embedding is empty", "embedding")
	}
	path := fmt.Sprintf("/employees/%d/register-face", employeeID)
	msg, err := postJSON[Message](ctx, c, path, face, "Face registration failed")
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
