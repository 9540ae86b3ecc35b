package cli

import "github.com/ardnew/aql/cli/cmd"

var (
	ErrConfig  = cmd.NewError("read configuration file")
	ErrMetrics = cmd.NewError("write metrics file")
)
