// Package shared provides common CLI flag definitions and helpers used
// across btserial's command-line interface.
package shared

import (
	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// InsecureFlag is the name of the flag selecting an unauthenticated RFCOMM link.
const InsecureFlag = "insecure"

// VerboseFlag is the name of the flag enabling debug logging.
const VerboseFlag = "verbose"

// GetCommonFlags returns the flags shared by all connection commands.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     InsecureFlag,
			Aliases:  []string{"i"},
			Usage:    "Use an insecure (unauthenticated) RFCOMM link",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose debug logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
	}
}
