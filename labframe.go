package main

import (
	"fmt"
	"os"

	"github.com/phil-mansfield/labframe/lib"
	"github.com/phil-mansfield/labframe/lib/error"
	"github.com/phil-mansfield/labframe/lib/logging"
)

func main() {
	defer error.Recover()

	// Parse arguments.
	mode, configFile, cmdArgs, err := lib.ParseCommandLine(os.Args[1:])
	if err != nil {
		error.External("%s", err.Error())
	}
	if mode == lib.HelpMode {
		lib.PrintHelp(os.Stdout)
		return
	}

	rawArgs, err := lib.ParseConfigFile(configFile)
	if err != nil {
		error.External("%s", err.Error())
	}
	rawArgs.Overwrite(cmdArgs)

	// Do processing that doesn't need external validation.
	args, err := rawArgs.Process()
	if err != nil {
		error.External("%s", err.Error())
	}

	// Run the chosen mode.
	switch mode {
	case lib.CheckMode:
		Check(args)
	case lib.RunMode:
		Run(args)
	case lib.ConfirmMode:
		Confirm(args)
	default:
		error.Internal("Mode %s was parsed but has no handler.", mode)
	}
}

// Check runs labframe's "check" mode, which tests for errors in the
// configuration arguments.
func Check(args *lib.Args) {
	errs := lib.Check(args)
	if len(errs) == 0 {
		fmt.Println("No errors detected.")
		return
	}
	for _, err := range errs {
		fmt.Println(err.Error())
	}
	os.Exit(1)
}

// check runs "check" mode before another mode and either stops or warns,
// depending on args.Strictness.
func check(args *lib.Args) {
	errs := lib.Check(args)
	if len(errs) == 0 {
		return
	}
	if args.Strictness == lib.CrashOnError {
		error.External("%s", errs[0].Error())
	}
	for _, err := range errs {
		logging.Logf("Warning: %s", err.Error())
	}
}

// Run runs labframe's "run" mode, which performs a synthetic boosted-frame
// run and writes its lab-frame diagnostics.
func Run(args *lib.Args) {
	check(args)
	if err := lib.Run(args); err != nil {
		error.External("%s", err.Error())
	}
}

// Confirm runs labframe's "confirm" mode, which checks that the output of a
// run can be read back and is consistent with its metadata.
func Confirm(args *lib.Args) {
	check(args)
	if _, err := lib.Confirm(args, os.Stdout); err != nil {
		error.External("%s", err.Error())
	}
	fmt.Println("No errors detected.")
}
