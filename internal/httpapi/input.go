package httpapi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/librarydesk/lms/internal/library"
)

const maxBodyBytes = 1 << 20

// formFields reads a form-encoded or JSON object body into a flat string map
func formFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		raw := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, &library.ValidationError{Field: "body", Message: "body must be a JSON object"}
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case nil:
			default:
				fields[k] = fmt.Sprint(val)
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, &library.ValidationError{Field: "body", Message: "malformed form body"}
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	return fields, nil
}

// bookDescription accepts both "content" and "description" for the book text
func bookDescription(fields map[string]string) string {
	if content := fields["content"]; content != "" {
		return content
	}
	return fields["description"]
}

func parseID(field, raw string) (uint, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, &library.ValidationError{Field: field, Message: field + " must be a positive integer"}
	}
	return uint(id), nil
}

func pathID(r *http.Request, field string) (uint, error) {
	return parseID(field, chi.URLParam(r, "id"))
}

func queryID(r *http.Request, field string) (uint, error) {
	return parseID(field, r.URL.Query().Get(field))
}
