package utils

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"pulse/config"
)

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("REDIS_HOST", mr.Host())
	os.Setenv("REDIS_PORT", mr.Port())
	config.Load()

	code := m.Run()
	mr.Close()
	os.Exit(code)
}
