package main

import (
	"errors"
	"os"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/server"
)

// Exit codes for the mdexport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, address in use
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdexport.ErrBrowserConnect) ||
		errors.Is(err, mdexport.ErrPageCreate) ||
		errors.Is(err, mdexport.ErrPageLoad) ||
		errors.Is(err, mdexport.ErrRasterize) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, server.ErrListen) ||
		errors.Is(err, server.ErrWatch) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdexport.ErrInvalidPageSize) ||
		errors.Is(err, mdexport.ErrInvalidOrientation) ||
		errors.Is(err, mdexport.ErrInvalidPlacement) ||
		errors.Is(err, mdexport.ErrInvalidScale) ||
		errors.Is(err, mdexport.ErrInvalidWidth) ||
		errors.Is(err, mdexport.ErrUnknownFormat) ||
		errors.Is(err, mdexport.ErrUnknownRasterizer) ||
		errors.Is(err, mdexport.ErrStyleNotFound) ||
		errors.Is(err, mdexport.ErrTemplateNotFound) ||
		errors.Is(err, mdexport.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
