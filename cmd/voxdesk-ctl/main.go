package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/spf13/pflag"

	"voxdesk/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	timeout := cli.DurationP("timeout", "t", 5*time.Second, "Request timeout")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: voxdesk-ctl [flags] say <text> | file <path> | status | history [n] | stop\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	// the daemon may run in another directory
	if args[0] == "file" && len(args) == 2 {
		if abs, err := filepath.Abs(args[1]); err == nil {
			args[1] = abs
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, ipc.ControlMessage{Cmd: args[0], Args: args[1:]})
	if err != nil {
		fmt.Println("voxdesk not running:", err)
		os.Exit(1)
	}

	if reply.Message != "" {
		fmt.Println(reply.Message)
	}
	for _, l := range reply.Lines {
		fmt.Println(l)
	}
	if !reply.OK {
		os.Exit(1)
	}
}
