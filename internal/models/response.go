package models

import (
	"net/http"
	"time"
)

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// EntryData wraps a single object.
type EntryData struct {
	Entry interface{} `json:"entry"`
}

// ListData wraps a list of objects.
type ListData struct {
	List interface{} `json:"list"`
}

// StatusData reports a schedule condition that is not an error, such as
// "no active service today".
type StatusData struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// Entry carries what is known despite the status, e.g. the route record.
	Entry interface{} `json:"entry,omitempty"`
}

func ResponseCurrentTime() int64 {
	return time.Now().UnixMilli()
}

// NewResponse builds a version 2 envelope.
func NewResponse(code int, data interface{}, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

func NewOKResponse(data interface{}) ResponseModel {
	return NewResponse(http.StatusOK, data, "OK")
}

func NewEntryResponse(entry interface{}) ResponseModel {
	return NewOKResponse(EntryData{Entry: entry})
}

func NewListResponse(list interface{}) ResponseModel {
	return NewOKResponse(ListData{List: list})
}

// NewStatusResponse is a 200 response whose data is a status payload.
func NewStatusResponse(status, message string, entry interface{}) ResponseModel {
	return NewResponse(http.StatusOK, StatusData{Status: status, Message: message, Entry: entry}, status)
}
