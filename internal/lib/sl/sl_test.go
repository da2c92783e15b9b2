package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("something broke"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "something broke", attr.Value.String())
}

func TestUID(t *testing.T) {
	attr := UID("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	assert.Equal(t, "user_uid", attr.Key)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", attr.Value.String())
}
