package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuorum(t *testing.T) {
	q, err := ParseQuorum("2/3", 3)
	assert.NoError(t, err)
	assert.Equal(t, Quorum{Ack: 2, From: 3}, q)
	assert.Equal(t, 2, q.MaxFailures())
	assert.Equal(t, "2/3", q.String())
}

func TestParseQuorum_DefaultsToMajority(t *testing.T) {
	q, err := ParseQuorum("", 5)
	assert.NoError(t, err)
	assert.Equal(t, Quorum{Ack: 3, From: 5}, q)

	q, err = ParseQuorum("", 1)
	assert.NoError(t, err)
	assert.Equal(t, Quorum{Ack: 1, From: 1}, q)
}

func TestParseQuorum_RejectsInvalidDescriptors(t *testing.T) {
	for _, s := range []string{"3/2", "0/2", "-1/2", "2", "a/3", "2/b", "2/4"} {
		_, err := ParseQuorum(s, 3)
		assert.ErrorIs(t, err, ErrBadRequest, s)
	}
}
