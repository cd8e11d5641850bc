/*package error contains simple functions for reporting fatal labframe errors.
Everything else in labframe returns error values; these two functions are only
called at the very top of the program, where there's nothing left to do with an
error except explain it and stop.
*/
package error

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// exit is swapped out by tests.
var exit = os.Exit

// External reports an error to stderr and kills the program. It should be used
// when the error is something a user could reasonably be expected to fix
// through changes to their configuration file or output directory. It has the
// same signature as the standard fmt.*printf() functions.
func External(format string, a ...interface{}) {
	log.Printf("labframe exited early with the following error:\n"+format, a...)
	exit(1)
}

// Internal reports an error to stderr along with a stack trace and kills the
// program. It should be used when the error requires a code dive to fix, e.g.
// a buffer slot or field index that the orchestrator should never have
// produced.
func Internal(format string, a ...interface{}) {
	log.Println("labframe exited early with the following internal error:")
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n\n")
	debug.PrintStack()
	exit(1)
}

// Recover converts a panic raised by a violated internal contract into a call
// to Internal. Use it as `defer error.Recover()` at the top of main.
func Recover() {
	if r := recover(); r != nil {
		Internal("%v", r)
	}
}
