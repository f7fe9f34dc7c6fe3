package domain

import "github.com/google/uuid"

type Method string

const (
	MethodGet    Method = "GET"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func ParseMethod(s string) (Method, bool) {
	switch m := Method(s); m {
	case MethodGet, MethodPut, MethodDelete:
		return m, true
	}
	return "", false
}

func (m Method) IsWrite() bool {
	return m == MethodPut || m == MethodDelete
}

// Accepts reports whether a replica answering with s counts towards the
// quorum of an operation with this method.
func (m Method) Accepts(s Status) bool {
	switch m {
	case MethodGet:
		return s == StatusOK || s == StatusNotFound
	case MethodPut:
		return s == StatusCreated
	case MethodDelete:
		return s == StatusAccepted
	}
	return false
}

// SuccessStatus is the terminal status of a successful write.
func (m Method) SuccessStatus() Status {
	switch m {
	case MethodPut:
		return StatusCreated
	case MethodDelete:
		return StatusAccepted
	}
	return StatusOK
}

// Operation is a client request as it travels between replicas.
type Operation struct {
	Id      string
	Method  Method
	Key     []byte
	Payload []byte
	Quorum  Quorum
	// Proxied marks an operation forwarded by another node. It is executed
	// locally and never fanned out again.
	Proxied bool
}

func NewOperation(method Method, key, payload []byte, quorum Quorum) Operation {
	return Operation{
		Id:      uuid.NewString(),
		Method:  method,
		Key:     key,
		Payload: payload,
		Quorum:  quorum,
	}
}

// AsProxy returns the copy of the operation sent to a remote replica.
func (o Operation) AsProxy() Operation {
	o.Proxied = true
	return o
}
