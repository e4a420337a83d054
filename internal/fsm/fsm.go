// Package fsm implements the continuous-mode ITS payload state machine:
// it classifies each 10-byte GBT word by ID plus a handful of state bits
// carried by the caller (TDH's no_data, TDT's packet_done), with no
// lookahead and no knowledge of anything but the current state.
package fsm

import "fmt"

// State is one node of the payload state machine.
type State int

const (
	StateIHW State = iota
	StateTDH
	StateData
	StateDDW0
	StateDDW0OrTDH
	StateDDW0OrTDHOrIHW
	StateCIHW
	StateCTDH
	StateCData
)

func (s State) String() string {
	names := [...]string{
		"IHW_", "TDH_", "DATA_", "DDW0_", "DDW0_or_TDH_",
		"DDW0_or_TDH_or_IHW_", "c_IHW_", "c_TDH_", "c_DATA_",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "UNKNOWN_STATE"
}

// Kind is what the FSM decided a word was, once classified.
type Kind int

const (
	KindIHW Kind = iota
	KindIHWContinuation
	KindTDH
	KindTDHContinuation
	KindTDHAfterPacketDone
	KindTDT
	KindDDW0
	KindDataWord
	KindCDW
)

func (k Kind) String() string {
	names := [...]string{
		"IHW", "IHW_continuation", "TDH", "TDH_continuation",
		"TDH_after_packet_done", "TDT", "DDW0", "DataWord", "CDW",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "UNKNOWN_KIND"
}

// Candidate names the set of kinds that were plausible when the FSM hit
// an ID it had no exact transition for.
type Candidate int

const (
	CandidateTDHOrDDW0 Candidate = iota
	CandidateDWOrTDTCDW
	CandidateDDW0OrTDHOrIHW
)

func (c Candidate) String() string {
	switch c {
	case CandidateTDHOrDDW0:
		return "TDH_or_DDW0"
	case CandidateDWOrTDTCDW:
		return "DW_or_TDT_CDW"
	case CandidateDDW0OrTDHOrIHW:
		return "DDW0_or_TDH_IHW"
	default:
		return "UNKNOWN_CANDIDATE"
	}
}

// AmbiguousError is returned alongside a best-guess Kind when the current
// ID has no unambiguous transition from the current state. The FSM still
// advances using the guess so the caller keeps making progress.
type AmbiguousError struct {
	State     State
	ID        byte
	Candidate Candidate
	Guess     Kind
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous word id %#02x in state %s: could be %s, guessing %s",
		e.ID, e.State, e.Candidate, e.Guess)
}

// ID bytes the FSM switches on. Mirrors words.ID* but kept local so this
// package has no dependency on the words package's decoding concerns.
const (
	idIHW  = 0xE0
	idTDH  = 0xE8
	idTDT  = 0xF0
	idDDW0 = 0xE4
	idCDW  = 0xF8
)

func isDataWordID(id byte) bool {
	top := id & 0xE0
	return top == 0x20 || top == 0x40
}

// FSM is the continuous-mode payload classifier. Owned exclusively by one
// worker; never accessed concurrently.
type FSM struct {
	state State
}

// New returns an FSM in its initial state, IHW_.
func New() *FSM {
	return &FSM{state: StateIHW}
}

// State reports the FSM's current state, mainly for diagnostics.
func (f *FSM) State() State { return f.state }

// Reset returns the machine to IHW_. Callers typically log a warning
// alongside this when recovering from an invalid payload.
func (f *FSM) Reset() {
	f.state = StateIHW
}

// Next advances the FSM by one word. noData and packetDone are read from
// the word itself by the caller (they only matter for TDH and TDT IDs
// respectively) and ignored for every other ID.
func (f *FSM) Next(id byte, noData, packetDone bool) (Kind, error) {
	switch f.state {
	case StateIHW:
		return f.nextFromIHW(id)
	case StateTDH:
		return f.nextFromTDH(id, noData)
	case StateData:
		return f.nextFromData(id, packetDone)
	case StateDDW0OrTDH:
		return f.nextFromDDW0OrTDH(id, noData)
	case StateDDW0OrTDHOrIHW:
		return f.nextFromDDW0OrTDHOrIHW(id, noData)
	case StateCIHW:
		f.state = StateCTDH
		return KindIHWContinuation, nil
	case StateCTDH:
		f.state = StateCData
		return KindTDHContinuation, nil
	case StateCData:
		return f.nextFromData(id, packetDone)
	default:
		f.state = StateIHW
		return f.nextFromIHW(id)
	}
}

// nextFromIHW always treats the word as an IHW and advances to StateTDH;
// a malformed id is left for checkIHW's own sanity check to catch, the
// same way the real FSM's InitialIHW_ arm never second-guesses the id.
func (f *FSM) nextFromIHW(id byte) (Kind, error) {
	f.state = StateTDH
	return KindIHW, nil
}

// nextFromTDH always treats the word as a TDH and advances per noData;
// a malformed id is left for checkTDH's own sanity check to catch, the
// same way the real FSM's TDH_By_WasIhw arm never second-guesses the id.
func (f *FSM) nextFromTDH(id byte, noData bool) (Kind, error) {
	if noData {
		f.state = StateDDW0OrTDH
	} else {
		f.state = StateData
	}
	return KindTDH, nil
}

func (f *FSM) nextFromDDW0OrTDH(id byte, noData bool) (Kind, error) {
	switch id {
	case idDDW0:
		f.state = StateIHW
		return KindDDW0, nil
	case idTDH:
		if !noData {
			f.state = StateData
		}
		return KindTDH, nil
	default:
		f.state = StateData
		return KindDataWord, &AmbiguousError{State: StateDDW0OrTDH, ID: id, Candidate: CandidateTDHOrDDW0, Guess: KindDataWord}
	}
}

func (f *FSM) nextFromDDW0OrTDHOrIHW(id byte, noData bool) (Kind, error) {
	switch id {
	case idTDH:
		if noData {
			return KindTDHAfterPacketDone, nil
		}
		f.state = StateData
		return KindTDHAfterPacketDone, nil
	case idIHW:
		f.state = StateTDH
		return KindIHW, nil
	case idDDW0:
		f.state = StateIHW
		return KindDDW0, nil
	default:
		f.state = StateData
		return KindDataWord, &AmbiguousError{State: StateDDW0OrTDHOrIHW, ID: id, Candidate: CandidateDDW0OrTDHOrIHW, Guess: KindDataWord}
	}
}

func (f *FSM) nextFromData(id byte, packetDone bool) (Kind, error) {
	switch {
	case id == idTDT:
		if packetDone {
			f.state = StateDDW0OrTDHOrIHW
		} else {
			f.state = StateCIHW
		}
		return KindTDT, nil
	case id == idCDW:
		return KindCDW, nil
	case isDataWordID(id):
		return KindDataWord, nil
	default:
		return KindDataWord, &AmbiguousError{State: StateData, ID: id, Candidate: CandidateDWOrTDTCDW, Guess: KindDataWord}
	}
}
