package errors

import (
	"encoding/json"
	"maps"
	"net/http"
)

// ContentTypeProblem is the RFC 7807 media type.
const ContentTypeProblem = "application/problem+json"

// ProblemDetails is an RFC 7807 body. Extensions are serialized as
// top-level members next to the standard ones.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]interface{}
}

// MarshalJSON flattens extensions; a standard member always wins over an
// extension with the same name.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, 5+len(pd.Extensions))
	maps.Copy(data, pd.Extensions)

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	return json.Marshal(data)
}

func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension sets an extension member and returns pd for chaining.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// WriteProblem writes pd with its status and the problem media type.
// go-chi/render would label the body application/json, so problems bypass it.
func WriteProblem(w http.ResponseWriter, pd *ProblemDetails) {
	body, err := json.Marshal(pd)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeProblem)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(pd.Status)
	_, _ = w.Write(body)
}
