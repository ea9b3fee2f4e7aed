package buildingapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaborage/facility-client/httpclient"
)

// MaxPhotoBytes is the largest photo the API accepts.
const MaxPhotoBytes = 10 << 20

var photoContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Photo is an in-memory image that can be resent on every retry.
type Photo struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (p *Photo) formFile() httpclient.FormFile {
	return httpclient.FormFile{
		FieldName:   "photo",
		FileName:    p.FileName,
		ContentType: p.ContentType,
		Data:        p.Data,
	}
}

// PhotoFromFile reads a jpg, jpeg or png file of at most MaxPhotoBytes.
func PhotoFromFile(path string) (*Photo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := photoContentTypes[ext]
	if !ok {
		return nil, httpclient.NewValidationError(fmt.Sprintf("unsupported photo type %q (jpg, jpeg, png)", ext), "photo")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat photo: %w", err)
	}
	if info.Size() > MaxPhotoBytes {
		return nil, httpclient.NewValidationError(fmt.Sprintf("photo is %d bytes, limit is %d", info.Size(), MaxPhotoBytes), "photo")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return &Photo{FileName: filepath.Base(path), ContentType: contentType, Data: data}, nil
}
