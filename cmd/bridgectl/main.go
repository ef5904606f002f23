package main

import (
	"flag"
	"fmt"
	"os"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bridgectl [-addr host:port] <command> [flags]

commands:
  watch [-n N]                         print snapshots
  drive -left L -right R [-lights S]   send one command (speeds in [-1, 1])
  stop                                 send zero speeds
`)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "bridge HTTP address")
	flag.Usage = usage
	flag.Parse()

	logger, err := customlog.NewLogrusLogger("info", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		n := fs.Int("n", 0, "stop after N snapshots (0 = forever)")
		_ = fs.Parse(args)
		err = watch(*addr, *n, os.Stdout)

	case "drive":
		cmd, perr := parseDrive(args)
		if perr != nil {
			logger.Fatalf("%v", perr)
		}
		err = sendCommand(*addr, cmd)

	case "stop":
		err = sendCommand(*addr, robot.Stop())

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("%s failed: %v", flag.Arg(0), err)
	}
}

func parseDrive(args []string) (robot.ActuatorCommand, error) {
	fs := flag.NewFlagSet("drive", flag.ContinueOnError)
	left := fs.Float64("left", 0, "left motor speed in [-1, 1]")
	right := fs.Float64("right", 0, "right motor speed in [-1, 1]")
	lights := fs.String("lights", "", "lights state: off, green, red, amber")
	if err := fs.Parse(args); err != nil {
		return robot.ActuatorCommand{}, err
	}

	cmd := robot.ActuatorCommand{LeftMotorSpeed: *left, RightMotorSpeed: *right}
	if *lights != "" {
		state := robot.LightsState(*lights)
		cmd.Lights = &state
	}
	return cmd, cmd.Validate()
}
