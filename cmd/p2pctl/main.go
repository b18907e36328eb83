// Command p2pctl is a local interactive console with line editing and a
// history file. It has no connection to a running p2pnoded instance: the
// "peers" command reports that, and no command sends messages to peers.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

const historyFile = ".p2pctl_history"

func main() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("p2pctl - interactive peer console. Type 'help' for commands, 'quit' to exit.")
	repl(line)

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func repl(line *liner.State) {
	for {
		input, err := line.Prompt("p2pctl> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !dispatch(input) {
			return
		}
	}
}

// dispatch executes one console command and returns false when the
// console should exit.
func dispatch(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "quit", "exit":
		return false
	case "help":
		printHelp()
	case "peers":
		fmt.Println("(not connected to a live node in this build: wire up an RPC/admin transport to list peers)")
	default:
		fmt.Printf("unknown command %q, type 'help'\n", fields[0])
	}
	return true
}

func printHelp() {
	fmt.Println(`commands:
  peers    report peer listing status (no live node connection in this build)
  help     show this message
  quit     exit the console`)
}
