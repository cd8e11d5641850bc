package error

import (
	"os"
	"testing"
)

func TestExternalExits(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	External("bad value %d", 7)
	if code != 1 {
		t.Errorf("Expected External to exit with code 1, got %d.", code)
	}
}

func TestRecover(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	func() {
		defer Recover()
		panic("Internal error: slot 300 is outside [0, 256).")
	}()

	if code != 1 {
		t.Errorf("Expected Recover to exit with code 1, got %d.", code)
	}

	code = -1
	func() {
		defer Recover()
	}()
	if code != -1 {
		t.Errorf("Expected Recover without a panic to leave exit alone, "+
			"but exit(%d) was called.", code)
	}
}
