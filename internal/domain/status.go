package domain

import "net/http"

type Status int

const (
	StatusOK                Status = http.StatusOK
	StatusCreated           Status = http.StatusCreated
	StatusAccepted          Status = http.StatusAccepted
	StatusBadRequest        Status = http.StatusBadRequest
	StatusNotFound          Status = http.StatusNotFound
	StatusMethodNotAllowed  Status = http.StatusMethodNotAllowed
	StatusInternalError     Status = http.StatusInternalServerError
	StatusNotEnoughReplicas Status = http.StatusGatewayTimeout
)

func (s Status) Code() int {
	return int(s)
}

func (s Status) String() string {
	switch s {
	case StatusNotEnoughReplicas:
		return "504 Not Enough Replicas"
	case StatusInternalError:
		return "500 Internal Error"
	}
	return http.StatusText(int(s))
}

// StatusFromCode maps a status code received from a replica.
func StatusFromCode(code int) (Status, bool) {
	switch s := Status(code); s {
	case StatusOK, StatusCreated, StatusAccepted, StatusBadRequest, StatusNotFound,
		StatusMethodNotAllowed, StatusInternalError, StatusNotEnoughReplicas:
		return s, true
	}
	return 0, false
}
