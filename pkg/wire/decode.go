package wire

import "strconv"

// DecodedKind says what a received line turned out to be.
type DecodedKind uint8

const (
	// DecodedReply marks a line belonging to the outstanding command.
	DecodedReply DecodedKind = iota

	// DecodedEvent marks an unsolicited state-change event.
	DecodedEvent
)

// Decoded is the classification of one received line.
type Decoded struct {
	Kind DecodedKind

	// Event is set when Kind is DecodedEvent.
	Event Event

	// Reply is the raw line when Kind is DecodedReply.
	Reply string
}

// DecodeLine classifies one received line (terminator already stripped).
// marker is the session's detected start marker, needed to recognize dim
// reports. Classification never fails: any line that is not a well-formed
// event is a reply, and the caller awaiting one interprets or rejects it.
func DecodeLine(line string, marker byte) Decoded {
	if len(line) == 4 {
		if index, ok := parseIndex(line[1:4]); ok {
			switch line[0] {
			case 'P':
				return eventLine(Event{Kind: EventSwitchPressed, Index: index})
			case 'R':
				return eventLine(Event{Kind: EventSwitchReleased, Index: index})
			case 'N':
				return eventLine(Event{Kind: EventLoadActivated, Index: index, Level: LevelUnknown})
			case 'F':
				return eventLine(Event{Kind: EventLoadDeactivated, Index: index})
			}
		}
	}

	// ^Kiiill: load iii changed to level ll. Level 00 is a deactivation;
	// anything else is an activation carrying the new level.
	if len(line) == 7 && line[0] == marker && line[1] == 'K' {
		index, okIndex := parseIndex(line[2:5])
		level, okLevel := parseIndex(line[5:7])
		if okIndex && okLevel {
			if level == 0 {
				return eventLine(Event{Kind: EventLoadDeactivated, Index: index})
			}
			return eventLine(Event{Kind: EventLoadActivated, Index: index, Level: level})
		}
	}

	return Decoded{Kind: DecodedReply, Reply: line}
}

func eventLine(e Event) Decoded {
	return Decoded{Kind: DecodedEvent, Event: e}
}

// parseIndex parses a fixed-width decimal field. Non-digit content
// disqualifies the line from event classification.
func parseIndex(s string) (int, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
