package unit

// Button identifies a physical response button.
type Button uint8

const (
	// ButtonAcknowledge is the blue "accept" button.
	ButtonAcknowledge Button = iota

	// ButtonBusy is the red "decline" button.
	ButtonBusy
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonAcknowledge:
		return "ACKNOWLEDGE"
	case ButtonBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// ButtonInput is a non-blocking source of button presses. The orchestrator
// polls it once per tick.
type ButtonInput interface {
	// Poll returns the next pending press, if any.
	Poll() (Button, bool)
}

// ChannelInput is a ButtonInput fed from another goroutine, used by the
// interactive simulator and by tests.
type ChannelInput struct {
	presses chan Button
}

// Compile-time check.
var _ ButtonInput = (*ChannelInput)(nil)

// NewChannelInput creates an input holding up to 8 pending presses.
func NewChannelInput() *ChannelInput {
	return &ChannelInput{presses: make(chan Button, 8)}
}

// Press records a button press. Presses beyond the buffer are dropped;
// a human cannot outrun the tick loop by enough to matter.
func (c *ChannelInput) Press(b Button) {
	select {
	case c.presses <- b:
	default:
	}
}

// Poll returns the next pending press, if any.
func (c *ChannelInput) Poll() (Button, bool) {
	select {
	case b := <-c.presses:
		return b, true
	default:
		return 0, false
	}
}
