package lib

import (
	"fmt"
)

// Mode is the labframe command being run.
type Mode int

const (
	HelpMode Mode = iota
	CheckMode
	RunMode
	ConfirmMode
)

var modeNames = []string{"help", "check", "run", "confirm"}

// ParseMode converts a command line mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	for i := range modeNames {
		if modeNames[i] == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("You attempted to run labframe in the mode '%s', "+
		"but the only valid modes are 'help', 'check', 'run', and "+
		"'confirm'.", name)
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// CheckStrictness indicates how functions related to the "check" labframe
// mode should behave when it encounters an error.
type CheckStrictness int

const (
	CrashOnError CheckStrictness = iota
	WarnOnError
)
