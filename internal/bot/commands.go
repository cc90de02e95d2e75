package bot

import (
	"context"
	"fmt"
)

// BuiltinCommands returns the commands the bot ships with. Versions are
// bumped whenever a command's state shape or button set changes, so stale
// executions from older deployments are refused instead of misinterpreted.
func BuiltinCommands() []*Command {
	return []*Command{addNumber()}
}

// addNumber is the canonical stateful command: it keeps a counter in the
// execution state and increments it on every button click.
func addNumber() *Command {
	cmd := NewCommand("add", "1.0.0", "Keep adding a number")

	cmd.Handle("", func(ctx context.Context, exec *Execution, ev *CommandEvent) error {
		exec.State["count"] = float64(1)
		exec.Reply("Number: 1", exec.Button("Add One"))
		return nil
	})

	cmd.AddButton("Add One", StylePrimary, func(ctx context.Context, exec *Execution, ev *ButtonEvent) error {
		count, _ := exec.State["count"].(float64)
		count++
		exec.State["count"] = count
		exec.Update(fmt.Sprintf("Number: %d", int64(count)), exec.Button("Add One"))
		return nil
	})

	return cmd
}
