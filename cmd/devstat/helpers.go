package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/client"
	"github.com/devstat/devstat/pkg/config"
)

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

// socketPath is --daemon-socket, or the socket named by the config file.
func socketPath() string {
	if unixSocketPath != "" {
		return unixSocketPath
	}
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.WithError(err).Debug("cannot read config, using default socket")
		return config.DefaultSocket()
	}
	return conf.Socket()
}

func newAPIClient() *client.Client {
	return client.NewClient(unixSocketPath)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
