package server_test

import (
	"testing"

	"dirsync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_IsValidMode(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		want      bool
		wantApply bool
	}{
		{"Plan", server.ModePlan, true, false},
		{"Apply", server.ModeApply, true, true},
		{"Invalid", "invalid", false, false},
		{"Empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Mode: tt.mode}
			assert.Equal(t, tt.want, c.IsValidMode())
			assert.Equal(t, tt.wantApply, c.AllowsApply())
		})
	}
}
