package mockapi

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxPhotoBytes = 10 << 20

// registration mirrors the server-side rules for POST /employees/register.
type registration struct {
	Name      string `validate:"required,max=255"`
	Email     string `validate:"omitempty,email"`
	Password  string `validate:"required,min=6"`
	FloorID   string `validate:"omitempty,number"`
	Photo     string `validate:"required,image_ext"`
	PhotoSize int64  `validate:"lte=10485760"`
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("image_ext", validateImageExt); err != nil {
		return nil, err
	}
	return v, nil
}

func validateImageExt(fl validator.FieldLevel) bool {
	switch strings.ToLower(filepath.Ext(fl.Field().String())) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// validationBody renders validator errors in the API's 422 shape: a
// top-level message plus per-field messages.
func validationBody(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return map[string]any{"message": err.Error()}
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fieldName(fe.Field())
		fields[name] = append(fields[name], fieldMessage(name, fe))
	}
	msg := fieldMessage(fieldName(verrs[0].Field()), verrs[0])
	if len(verrs) > 1 {
		msg = fmt.Sprintf("%s (and %d more errors)", msg, len(verrs)-1)
	}
	return map[string]any{"message": msg, "errors": fields}
}

func fieldName(field string) string {
	switch field {
	case "FloorID":
		return "floor_id"
	case "PhotoSize":
		return "photo"
	default:
		return strings.ToLower(field)
	}
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "image_ext":
		return fmt.Sprintf("The %s must be a file of type: jpg, jpeg, png.", name)
	case "lte":
		return fmt.Sprintf("The %s may not be greater than 10240 kilobytes.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
