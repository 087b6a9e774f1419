package cmd

import (
	"github.com/spf13/pflag"
)

// addCommonStageFlags registers the flags every stage command shares.
func addCommonStageFlags(f *pflag.FlagSet, region *string, logLevel *string) {
	f.StringVarP(region, "region", "r", "", "AWS region of the buckets and secret store")
	f.StringVarP(logLevel, "log-level", "l", "", "Log level: error, warn, info, debug, trace")
}
