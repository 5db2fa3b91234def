package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deppfellow/base-api/internal/service"
)

func TestGreetingService_Greeting(t *testing.T) {
	t.Parallel()

	svc := service.NewGreetingService(nil)

	tests := map[string]struct {
		name string
		want string
	}{
		"default":      {name: "", want: "Hello World!"},
		"blank":        {name: "   ", want: "Hello World!"},
		"named":        {name: "Ada", want: "Hello Ada!"},
		"trimmed name": {name: " Ada ", want: "Hello Ada!"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, svc.Greeting(tc.name).Message)
		})
	}
}
