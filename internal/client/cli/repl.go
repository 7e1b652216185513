package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, date string) error
	Week(ctx context.Context, startDate string) error
	Add(ctx context.Context, date, mealTime string, food string) error
	Edit(ctx context.Context, id, mealTime string, food string) error
	Remove(ctx context.Context, id string) error
	Pair(ctx context.Context, deviceName string) error
	Join(ctx context.Context, code string) error
	Sync(ctx context.Context) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the scheduler CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Command errors are printed and the loop continues; this keeps the REPL
// resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fs> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error

		switch cmd {
		case "help":
			printlnFn("Available commands: list <date>, week <start>, add <date> <time> <food>, edit <id> <time> <food>, rm <id>, pair <name>, join <code>, sync, export <file>, import <file>, status, exit")
		case "list":
			if len(args) < 1 {
				err = fmt.Errorf("usage: list <YYYY-MM-DD>")
				break
			}
			err = a.List(ctx, args[0])
		case "week":
			if len(args) < 1 {
				err = fmt.Errorf("usage: week <YYYY-MM-DD>")
				break
			}
			err = a.Week(ctx, args[0])
		case "add":
			if len(args) < 3 {
				err = fmt.Errorf("usage: add <YYYY-MM-DD> <HH:MM> <food>")
				break
			}
			err = a.Add(ctx, args[0], args[1], strings.Join(args[2:], " "))
		case "edit":
			if len(args) < 3 {
				err = fmt.Errorf("usage: edit <id> <HH:MM> <food>")
				break
			}
			err = a.Edit(ctx, args[0], args[1], strings.Join(args[2:], " "))
		case "rm":
			if len(args) < 1 {
				err = fmt.Errorf("usage: rm <id>")
				break
			}
			err = a.Remove(ctx, args[0])
		case "pair":
			if len(args) < 1 {
				err = fmt.Errorf("usage: pair <device name>")
				break
			}
			err = a.Pair(ctx, strings.Join(args, " "))
		case "join":
			if len(args) < 1 {
				err = fmt.Errorf("usage: join <code>")
				break
			}
			err = a.Join(ctx, args[0])
		case "sync":
			err = a.Sync(ctx)
		case "export":
			if len(args) < 1 {
				err = fmt.Errorf("usage: export <file>")
				break
			}
			err = a.Export(ctx, args[0])
		case "import":
			if len(args) < 1 {
				err = fmt.Errorf("usage: import <file>")
				break
			}
			err = a.Import(ctx, args[0])
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
