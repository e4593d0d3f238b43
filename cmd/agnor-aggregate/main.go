// Command agnor-aggregate summarises one specimen's measurement tables.
package main

import (
	"flag"
	"fmt"
	"os"

	"agnor-examiner/internal/aggregate"
	"agnor-examiner/internal/logger"
	"agnor-examiner/internal/version"
)

func main() {
	nucleusPath := flag.String("nucleus", "", "Nucleus measurement table")
	agnorPath := flag.String("agnor", "", "AgNOR measurement table")
	remove := flag.Bool("remove", false, "Delete both tables after the summary is written")
	database := flag.String("database", "", "Cumulative summary table to append to")
	stamp := flag.String("stamp", "", "Summary file timestamp (default: now)")
	logLevel := flag.String("log-level", "info", "Log level")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("agnor-aggregate"))
		return
	}
	if *nucleusPath == "" || *agnorPath == "" {
		fmt.Println("Usage: agnor-aggregate -nucleus <csv> -agnor <csv> [-remove] [-database path]")
		os.Exit(1)
	}

	a := aggregate.New(logger.NewConsole(*logLevel))
	a.Stamp = *stamp
	if !a.Aggregate(*nucleusPath, *agnorPath, *remove, *database) {
		os.Exit(1)
	}
}
