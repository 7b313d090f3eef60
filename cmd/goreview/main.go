package main

import (
	"fmt"
	"os"

	"github.com/mwantia/goreview/cmd/goreview/cli"
	"github.com/mwantia/goreview/cmd/goreview/cli/client"
	"github.com/mwantia/goreview/cmd/goreview/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())

	root.AddCommand(client.NewCommentCommand())
	root.AddCommand(client.NewHostCommand())
	root.AddCommand(client.NewBeaconCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
