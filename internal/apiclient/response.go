package apiclient

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"lifeos/internal/apperrors"
)

// Response is a completed HTTP exchange. Body is nil exactly when the server
// answered 204 No Content.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Empty reports a response without a body (204).
func (r *Response) Empty() bool {
	return r.Body == nil
}

// Decode unmarshals the body into v. An empty response leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.Status, err)
	}
	return nil
}

// Err returns nil for 2xx, otherwise a *apperrors.ServerRejected carrying the
// server's detail message.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &apperrors.ServerRejected{Status: r.Status, Detail: Detail(r.Body)}
}

// Detail extracts the human-readable message from an error body. It accepts
// {"detail": "..."}, FastAPI validation lists {"detail": [{"loc":[..],"msg":".."}]},
// and {"error": "..."} / {"message": "..."}.
func Detail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		if d := detailText(payload.Detail); d != "" {
			return d
		}
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		field := ""
		if n := len(it.Loc); n > 0 {
			field = fmt.Sprint(it.Loc[n-1])
		}
		if field != "" {
			parts = append(parts, field+": "+it.Msg)
		} else {
			parts = append(parts, it.Msg)
		}
	}
	return strings.Join(parts, "; ")
}
