/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"os"

	"github.com/Sirkin25/sirkin-dashboard-sub000/cmd"
	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
)

func main() {
	os.Exit(run(cmd.Execute, apperrors.NewDefaultCLIHandler()))
}

// run executes the CLI and maps its error to an exit code.
func run(execute func() error, handler apperrors.ErrorHandler) int {
	if err := execute(); err != nil {
		apperrors.Report(handler, err)
		return 1
	}
	return 0
}
