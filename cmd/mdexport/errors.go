package main

import (
	"context"
	"errors"
	"strings"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/hints"
	"github.com/alnah/go-mdexport/internal/server"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrConverterInit      = errors.New("failed to initialize converter")
)

// hintFor returns an actionable hint for err, or "".
// configName is the --config value, used to list searched paths.
func hintFor(err error, configName, addr string) string {
	switch {
	case errors.Is(err, mdexport.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound) && configName != "":
		return hints.ForConfigNotFound(config.SearchPaths(configName))
	case errors.Is(err, mdexport.ErrStyleNotFound):
		return hints.ForStyleNotFound(mdexport.BuiltinStyles())
	case errors.Is(err, server.ErrListen) && strings.Contains(err.Error(), "address already in use"):
		return hints.ForAddressInUse(addr)
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
