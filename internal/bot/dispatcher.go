package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mayabot/maya/internal/cache"
	"github.com/mayabot/maya/internal/models"
	"github.com/mayabot/maya/internal/pkg/ulid"
	"github.com/mayabot/maya/internal/repository"
)

// Dispatch errors surfaced to the caller rather than to the end user.
var (
	// ErrUnknownCommand reports a slash command no descriptor is registered for.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownSubcommand reports a subcommand with no handler and no
	// empty-string fallback.
	ErrUnknownSubcommand = errors.New("no handler for subcommand")
)

// Terminal user-visible responses for unrecoverable button clicks.
var (
	replyNotRecoverable = &Reply{
		Content:   "That command was removed from the database for some reason, try using the command again",
		Ephemeral: true,
	}
	replyStaleVersion = &Reply{
		Content:   "That command has since been updated, try using the command again",
		Ephemeral: true,
	}
)

// Dispatcher routes inbound interaction events to registry entries,
// hydrating and persisting execution state across request boundaries. Every
// slash invocation persists its state unconditionally, button or not, so an
// execution can always be inspected later.
type Dispatcher struct {
	registry   *Registry
	executions repository.ExecutionRepository
	instances  *cache.Cache
	logger     *slog.Logger

	instanceTTL    time.Duration
	testingGuildID string

	// newID generates execution ids; tests substitute it.
	newID func() string
}

// NewDispatcher creates a dispatch engine. instanceTTL bounds how long a
// hydrated execution instance stays hot in this process; testingGuildID,
// when set, restricts dispatch to one guild.
func NewDispatcher(
	registry *Registry,
	executions repository.ExecutionRepository,
	instanceTTL time.Duration,
	testingGuildID string,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if instanceTTL <= 0 {
		instanceTTL = 15 * time.Minute
	}
	return &Dispatcher{
		registry:       registry,
		executions:     executions,
		instances:      cache.New("bot_instances", nil, logger),
		logger:         logger,
		instanceTTL:    instanceTTL,
		testingGuildID: testingGuildID,
		newID:          ulid.New,
	}
}

// HandleCommand runs a slash-command invocation: it creates a fresh
// execution, runs the matching handler over empty state and persists the
// resulting state. A nil reply with nil error means the event was ignored.
func (d *Dispatcher) HandleCommand(ctx context.Context, ev *CommandEvent) (*Reply, error) {
	if d.testingGuildID != "" && ev.GuildID != d.testingGuildID {
		return nil, nil
	}

	cmd, ok := d.registry.Get(ev.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, ev.Name)
	}

	handler := cmd.handler(ev.Subcommand)
	if handler == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownSubcommand, ev.Name, ev.Subcommand)
	}

	exec := &Execution{
		ID:      d.newID(),
		UserID:  ev.UserID,
		GuildID: ev.GuildID,
		State:   make(map[string]any),
		command: cmd,
		version: cmd.Version,
	}

	if err := handler(ctx, exec, ev); err != nil {
		return nil, fmt.Errorf("command %s failed: %w", ev.Name, err)
	}

	blob, err := json.Marshal(exec.State)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize execution state: %w", err)
	}

	// Persisted even when the handler registered no button, so the
	// execution remains inspectable afterwards.
	if err := d.executions.Create(ctx, &models.ExecutionState{
		ExecutionID:    exec.ID,
		DiscordUserID:  ev.UserID,
		GuildID:        ev.GuildID,
		CommandName:    cmd.Name,
		CommandVersion: cmd.Version,
		State:          string(blob),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist execution state: %w", err)
	}

	d.instances.Set(exec.ID, exec, d.instanceTTL)
	return exec.reply, nil
}

// HandleButton runs a button click: it recovers the execution (from the
// in-process instance cache or the store), gates on the registered command
// version, runs the button handler and persists the mutated state. The
// terminal conditions return a user-visible reply with a nil error.
func (d *Dispatcher) HandleButton(ctx context.Context, ev *ButtonEvent) (*Reply, error) {
	executionID, buttonID, ok := splitCustomID(ev.CustomID)
	if !ok {
		return replyNotRecoverable, nil
	}

	exec, reply, err := d.hydrate(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if reply != nil {
		return reply, nil
	}

	// The command may have been re-registered since the instance was
	// cached; the persisted version must still match the live descriptor.
	cmd, ok := d.registry.Get(exec.command.Name)
	if !ok {
		return replyNotRecoverable, nil
	}
	if cmd.Version != exec.version {
		d.logger.Info("stale command version",
			slog.String("execution_id", executionID),
			slog.String("command", cmd.Name),
			slog.String("registered", cmd.Version),
			slog.String("persisted", exec.version),
		)
		return replyStaleVersion, nil
	}

	btn := cmd.button(buttonID)
	if btn == nil {
		return nil, nil
	}

	// Clicks on the same execution run one at a time. The instance cache
	// returns the same pointer to every concurrent request, and handlers
	// mutate the shared state map.
	exec.mu.Lock()
	defer exec.mu.Unlock()

	exec.reply = nil
	if err := btn.Handler(ctx, exec, ev); err != nil {
		return nil, fmt.Errorf("button %s/%s failed: %w", cmd.Name, buttonID, err)
	}

	blob, err := json.Marshal(exec.State)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize execution state: %w", err)
	}
	if err := d.executions.UpdateState(ctx, executionID, string(blob)); err != nil {
		return nil, fmt.Errorf("failed to persist execution state: %w", err)
	}

	d.instances.Set(executionID, exec, d.instanceTTL)
	return exec.reply, nil
}

// hydrate recovers a live execution instance. The second return value is a
// terminal reply for unrecoverable executions.
func (d *Dispatcher) hydrate(ctx context.Context, executionID string) (*Execution, *Reply, error) {
	if value, _, ok := d.instances.Get(executionID); ok {
		return value.(*Execution), nil, nil
	}

	state, err := d.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load execution state: %w", err)
	}
	if state == nil {
		return nil, replyNotRecoverable, nil
	}

	cmd, ok := d.registry.Get(state.CommandName)
	if !ok {
		return nil, replyNotRecoverable, nil
	}

	var stateMap map[string]any
	if err := json.Unmarshal([]byte(state.State), &stateMap); err != nil {
		return nil, nil, fmt.Errorf("failed to deserialize execution state: %w", err)
	}
	if stateMap == nil {
		stateMap = make(map[string]any)
	}

	exec := &Execution{
		ID:      state.ExecutionID,
		UserID:  state.DiscordUserID,
		GuildID: state.GuildID,
		State:   stateMap,
		command: cmd,
		version: state.CommandVersion,
	}
	d.instances.Set(executionID, exec, d.instanceTTL)
	return exec, nil, nil
}

// splitCustomID decomposes a button custom id into execution and button ids.
// Button ids may themselves contain underscores; the split is on the first.
func splitCustomID(customID string) (executionID, buttonID string, ok bool) {
	executionID, buttonID, found := strings.Cut(customID, "_")
	if !found || executionID == "" || buttonID == "" {
		return "", "", false
	}
	return executionID, buttonID, true
}
