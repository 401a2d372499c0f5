package wire

import "fmt"

// Start markers. Which one a given MCP firmware expects is detected at
// session open and fixed for the life of the session.
const (
	// MarkerCaret is the start marker spoken by most firmware revisions.
	MarkerCaret byte = '^'

	// MarkerPlus is the start marker spoken by some later revisions.
	MarkerPlus byte = '+'
)

// Command verbs. The lowercase variant of each verb addresses the second
// board of a dual-board system.
const (
	VerbActivateLoad       byte = 'A'
	VerbDeactivateLoad     byte = 'B'
	VerbActivateScene      byte = 'C'
	VerbDeactivateScene    byte = 'D'
	VerbSetLoadLevel       byte = 'E'
	VerbGetLoadLevel       byte = 'F'
	VerbGetAllLoadStates   byte = 'G'
	VerbGetAllSwitchStates byte = 'H'
	VerbPressSwitch        byte = 'I'
	VerbReleaseSwitch      byte = 'J'
	VerbGetSwitchName      byte = 'K'
	VerbGetLoadName        byte = 'L'
	VerbGetSceneName       byte = 'M'
)

// Command is one outbound MCP command. Commands are immutable values built
// by the constructor functions below and encoded at send time, once the
// session knows its start marker.
type Command struct {
	// Verb is the command letter. Uppercase addresses board 1,
	// lowercase addresses board 2.
	Verb byte

	// Index is the 1-based, board-local item number. Ignored for verbs
	// that carry no index (bulk status).
	Index int

	// Level is the target level 0..99. Only meaningful for SetLoadLevel.
	Level int

	// Rate is the transition rate step 0..31. Only meaningful for
	// SetLoadLevel.
	Rate int
}

// ActivateLoad turns a load fully on.
func ActivateLoad(index int) Command {
	return Command{Verb: VerbActivateLoad, Index: index}
}

// DeactivateLoad turns a load off.
func DeactivateLoad(index int) Command {
	return Command{Verb: VerbDeactivateLoad, Index: index}
}

// ActivateScene activates a stored scene. Real MCP firmware rejects this
// verb; it exists for wire completeness.
func ActivateScene(index int) Command {
	return Command{Verb: VerbActivateScene, Index: index}
}

// DeactivateScene deactivates a stored scene. Real MCP firmware rejects
// this verb; it exists for wire completeness.
func DeactivateScene(index int) Command {
	return Command{Verb: VerbDeactivateScene, Index: index}
}

// SetLoadLevel ramps a load to level over the given rate step.
func SetLoadLevel(index, level, rate int) Command {
	return Command{Verb: VerbSetLoadLevel, Index: index, Level: level, Rate: rate}
}

// GetLoadLevel queries a load's current level. The reply is the decimal
// level text.
func GetLoadLevel(index int) Command {
	return Command{Verb: VerbGetLoadLevel, Index: index}
}

// GetAllLoadStates queries the instantaneous on/off state of every load on
// one board. The reply is a hex bit string (see DecodeBits).
func GetAllLoadStates() Command {
	return Command{Verb: VerbGetAllLoadStates}
}

// GetAllSwitchStates queries the instantaneous state of every switch on one
// board. The reply is a hex bit string (see DecodeBits).
func GetAllSwitchStates() Command {
	return Command{Verb: VerbGetAllSwitchStates}
}

// PressSwitch simulates pressing a switch.
func PressSwitch(index int) Command {
	return Command{Verb: VerbPressSwitch, Index: index}
}

// ReleaseSwitch simulates releasing a switch.
func ReleaseSwitch(index int) Command {
	return Command{Verb: VerbReleaseSwitch, Index: index}
}

// GetSwitchName queries a switch's stored name.
func GetSwitchName(index int) Command {
	return Command{Verb: VerbGetSwitchName, Index: index}
}

// GetLoadName queries a load's stored name.
func GetLoadName(index int) Command {
	return Command{Verb: VerbGetLoadName, Index: index}
}

// GetSceneName queries a scene's stored name.
func GetSceneName(index int) Command {
	return Command{Verb: VerbGetSceneName, Index: index}
}

// ForBoard returns the command routed to the given board (1 or 2). Board 2
// commands use the lowercase verb; the index must already be board-local.
func (c Command) ForBoard(board int) Command {
	if board == 2 {
		c.Verb = lowerVerb(c.Verb)
	}
	return c
}

// Encode renders the command to its wire text, without the trailing
// carriage return. The field layout is fixed by the verb: bulk status
// carries no fields, SetLoadLevel carries index, level and rate, and every
// other verb carries just the index.
func (c Command) Encode(marker byte) string {
	switch upperVerb(c.Verb) {
	case VerbGetAllLoadStates, VerbGetAllSwitchStates:
		return fmt.Sprintf("%c%c", marker, c.Verb)
	case VerbSetLoadLevel:
		return fmt.Sprintf("%c%c%03d%02d%02d", marker, c.Verb, c.Index, c.Level, c.Rate)
	default:
		return fmt.Sprintf("%c%c%03d", marker, c.Verb, c.Index)
	}
}

// String returns the command encoded with the caret marker, for logs.
func (c Command) String() string {
	return c.Encode(MarkerCaret)
}

func upperVerb(v byte) byte {
	if v >= 'a' && v <= 'z' {
		return v - 'a' + 'A'
	}
	return v
}

func lowerVerb(v byte) byte {
	if v >= 'A' && v <= 'Z' {
		return v - 'A' + 'a'
	}
	return v
}
