package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Quorum describes how many replicas (Ack) out of a replica set (From)
// must answer an operation.
type Quorum struct {
	Ack  int
	From int
}

func MajorityQuorum(nodes int) Quorum {
	return Quorum{
		Ack:  nodes/2 + 1,
		From: nodes,
	}
}

// ParseQuorum reads the "<ack>/<from>" form. An empty descriptor yields
// the majority quorum over the whole cluster.
func ParseQuorum(s string, clusterSize int) (Quorum, error) {
	if s == "" {
		return MajorityQuorum(clusterSize), nil
	}
	ackPart, fromPart, ok := strings.Cut(s, "/")
	if !ok {
		return Quorum{}, fmt.Errorf("%w: replicas %q must be <ack>/<from>", ErrBadRequest, s)
	}
	ack, err := strconv.Atoi(strings.TrimSpace(ackPart))
	if err != nil {
		return Quorum{}, fmt.Errorf("%w: ack %q", ErrBadRequest, ackPart)
	}
	from, err := strconv.Atoi(strings.TrimSpace(fromPart))
	if err != nil {
		return Quorum{}, fmt.Errorf("%w: from %q", ErrBadRequest, fromPart)
	}
	q := Quorum{Ack: ack, From: from}
	if err := q.Validate(clusterSize); err != nil {
		return Quorum{}, err
	}
	return q, nil
}

func (q Quorum) Validate(clusterSize int) error {
	if q.Ack <= 0 || q.Ack > q.From {
		return fmt.Errorf("%w: invalid quorum %s", ErrBadRequest, q)
	}
	if q.From > clusterSize {
		return fmt.Errorf("%w: quorum %s exceeds cluster size %d", ErrBadRequest, q, clusterSize)
	}
	return nil
}

// MaxFailures is the number of failed replicas at which the quorum
// can no longer be reached.
func (q Quorum) MaxFailures() int {
	return q.From - q.Ack + 1
}

func (q Quorum) String() string {
	return fmt.Sprintf("%d/%d", q.Ack, q.From)
}
