// Package main parcelctl：本地运行可行性计算与导入参考数据
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"urbaplan/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "parcelctl",
		Short:         "Parcel feasibility toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")

	newLogger := func() (logger.Logger, error) {
		if logLevel == "" {
			return logger.NewNop(), nil
		}
		return logger.NewZapLogger(logLevel)
	}

	cmd.AddCommand(feasibilityCmd(newLogger))
	cmd.AddCommand(seedCmd(newLogger))
	return cmd
}
