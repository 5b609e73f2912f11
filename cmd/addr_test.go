package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddr(t *testing.T) {
	valid := []string{":8090", "localhost:8090", "127.0.0.1:3400", "0.0.0.0:80"}
	for _, addr := range valid {
		assert.NoError(t, validateAddr(addr), addr)
	}

	invalid := []string{"", "8090", "localhost", "localhost:abc", "localhost:0", "localhost:70000"}
	for _, addr := range invalid {
		assert.Error(t, validateAddr(addr), addr)
	}
}
