package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string, number or null. Spreadsheet-driven clients
// send year, intake and phone columns either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(data)))
	return nil
}

func (f FlexString) String() string { return string(f) }

type MessageResponse struct {
	Message string `json:"message"`
}

// PageResponse is the envelope of every paginated listing.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPage normalizes page/limit the same way the repositories do.
func NewPage[T any](data []T, total int64, page, limit int) PageResponse[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}
