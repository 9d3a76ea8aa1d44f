// Package interactive provides the command-line simulator console for
// deskunit. It drives the scripted scan executor and the button input so
// the whole presence and delivery pipeline can be exercised without a BLE
// radio or physical buttons.
package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/consultease/deskunit/pkg/beacon"
	"github.com/consultease/deskunit/pkg/unit"
	"github.com/consultease/deskunit/pkg/wire"
)

// defaultSimRSSI is the signal strength simulated hits report.
const defaultSimRSSI = -55

// Console handles interactive mode for deskunit.
type Console struct {
	unit  *unit.Unit
	exec  *beacon.ScriptedExecutor
	input *unit.ChannelInput
	rl    *readline.Instance
}

// New creates a new interactive console.
func New(u *unit.Unit, exec *beacon.ScriptedExecutor, input *unit.ChannelInput) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "deskunit> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		unit:  u,
		exec:  exec,
		input: input,
		rl:    rl,
	}

	u.OnConsultation(func(msg wire.ConsultationMessage) {
		fmt.Fprintf(rl.Stdout(), "\n[CONSULTATION] %s: %s (%s) - answer with 'ack' or 'busy'\n",
			msg.StudentName, msg.Message, msg.MessageID)
	})

	return c, nil
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "hit", "h":
			c.cmdHit(args)

		case "miss", "m":
			c.cmdMiss()

		case "fail":
			c.cmdFail()

		case "ack", "a":
			c.input.Press(unit.ButtonAcknowledge)

		case "busy", "b":
			c.input.Press(unit.ButtonBusy)

		case "message", "msg":
			c.cmdMessage(args)

		case "status", "s":
			c.cmdStatus()

		case "stats":
			c.cmdStats()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Desk Unit Simulator Commands:
  Beacon:
    hit [rssi]  - Scans observe the beacon (default RSSI -55 dBm)
    miss        - Scans stop observing the beacon
    fail        - Scans fail with a simulated radio error

  Consultation:
    message <text>  - Deliver a simulated consultation request
    ack             - Press the acknowledge button
    busy            - Press the busy button

  Inspection:
    status      - Show presence, scan mode and queue backlog
    stats       - Show cumulative scan statistics

  General:
    help        - Show this help
    quit        - Exit`)
}

// cmdHit scripts matching scans.
func (c *Console) cmdHit(args []string) {
	rssi := defaultSimRSSI
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad RSSI %q\n", args[0])
			return
		}
		rssi = parsed
	}
	c.exec.Set(beacon.Step{Matched: true, RSSI: rssi})
	fmt.Fprintf(c.rl.Stdout(), "Beacon visible at %d dBm\n", rssi)
}

// cmdMiss scripts empty scans.
func (c *Console) cmdMiss() {
	c.exec.Set(beacon.Step{})
	fmt.Fprintln(c.rl.Stdout(), "Beacon gone")
}

// cmdFail scripts failing scans.
func (c *Console) cmdFail() {
	c.exec.Set(beacon.Step{Err: errors.New("simulated radio failure")})
	fmt.Fprintln(c.rl.Stdout(), "Radio failing")
}

// cmdMessage delivers a simulated consultation request.
func (c *Console) cmdMessage(args []string) {
	msg := wire.ConsultationMessage{
		MessageID:   uuid.NewString(),
		StudentName: "Simulated Student",
		Message:     strings.Join(args, " "),
	}
	if msg.Message == "" {
		msg.Message = "May I consult with you?"
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Failed to encode message: %v\n", err)
		return
	}
	c.unit.Deliver(c.unit.Topics().Messages, payload)
	fmt.Fprintf(c.rl.Stdout(), "Delivered consultation %s\n", msg.MessageID)
}

// cmdStatus shows the unit's externally visible state.
func (c *Console) cmdStatus() {
	out := c.rl.Stdout()
	status := wire.StatusAway
	if c.unit.Present() {
		status = wire.StatusAvailable
	}
	fmt.Fprintf(out, "Presence:   %s\n", status)
	fmt.Fprintf(out, "Scan mode:  %s\n", c.unit.Mode())
	fmt.Fprintf(out, "Queue:      %d pending\n", c.unit.QueueLen())
	if pending, ok := c.unit.Pending(); ok {
		fmt.Fprintf(out, "Awaiting response to %s\n", pending.MessageID)
	}
}

// cmdStats shows cumulative scan statistics.
func (c *Console) cmdStats() {
	stats := c.unit.Stats()
	out := c.rl.Stdout()
	fmt.Fprintf(out, "Scans:        %d\n", stats.Scans)
	fmt.Fprintf(out, "Hits:         %d\n", stats.Hits)
	fmt.Fprintf(out, "Misses:       %d\n", stats.Misses)
	fmt.Fprintf(out, "Failures:     %d\n", stats.Failures)
	fmt.Fprintf(out, "Mode changes: %d\n", stats.ModeChanges)
}
