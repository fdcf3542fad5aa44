package channel

import (
	"fmt"
	"strings"
)

// Mode decides when the bot reads and answers messages in a conversation.
type Mode int

const (
	// ModeOff ignores everything except commands.
	ModeOff Mode = iota
	// ModePassive reads and answers only when mentioned.
	ModePassive
	// ModeLurking reads everything and answers when mentioned.
	ModeLurking
	// ModeActive reads and answers everything.
	ModeActive
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModePassive:
		return "passive"
	case ModeLurking:
		return "lurking"
	case ModeActive:
		return "active"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off":
		return ModeOff, nil
	case "passive":
		return ModePassive, nil
	case "lurk", "lurking":
		return ModeLurking, nil
	case "active":
		return ModeActive, nil
	default:
		return ModeOff, fmt.Errorf("unknown mode %q", value)
	}
}

// Kind is the shape of a conversation on the chat platform.
type Kind int

const (
	KindOther Kind = iota
	// KindChannel is a top-level multi-party channel.
	KindChannel
	// KindThread is a sub-conversation nested under a channel.
	KindThread
	// KindDirect is a one-to-one private conversation.
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindThread:
		return "thread"
	case KindDirect:
		return "direct"
	default:
		return "other"
	}
}

func InitialMode(kind Kind) Mode {
	switch kind {
	case KindChannel, KindDirect:
		return ModeActive
	case KindThread:
		return ModeLurking
	default:
		return ModePassive
	}
}
