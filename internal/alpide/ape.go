package alpide

// APE is an ALPIDE Protocol Extension: an in-band signal the sensor emits
// when something goes wrong in its own readout state machine, distinct
// from the structural word kinds.
type APE int

const (
	APEPadding APE = iota
	APEStripStart
	APEDetectorTimeout
	APEOutOfTable
	APEProtocolError
	APELaneFifoOverflowError
	APEFsmError
	APEPendingDetectorEventLimit
	APEPendingLaneEventLimit
	APEO2NError
	APERateMissingTriggerError
	APEPeDataMissing
	APEOotDataMissing
)

const (
	apeBytePadding                  = 0x00
	apeByteStripStart               = 0xF2
	apeByteDetTimeout               = 0xF4
	apeByteOOT                      = 0xF5
	apeByteProtocolError            = 0xF6
	apeByteLaneFifoOverflowError    = 0xF7
	apeByteFsmError                 = 0xF8
	apeBytePendingDetectorEventLim  = 0xF9
	apeBytePendingLaneEventLimit    = 0xFA
	apeByteO2NError                 = 0xFB
	apeByteRateMissingTriggerError  = 0xFC
	apeBytePeDataMissing            = 0xFD
	apeByteOotDataMissing           = 0xFE
)

func apeFromByte(b byte) (APE, bool) {
	switch b {
	case apeByteStripStart:
		return APEStripStart, true
	case apeByteDetTimeout:
		return APEDetectorTimeout, true
	case apeByteOOT:
		return APEOutOfTable, true
	case apeByteProtocolError:
		return APEProtocolError, true
	case apeByteLaneFifoOverflowError:
		return APELaneFifoOverflowError, true
	case apeByteFsmError:
		return APEFsmError, true
	case apeBytePendingDetectorEventLim:
		return APEPendingDetectorEventLimit, true
	case apeBytePendingLaneEventLimit:
		return APEPendingLaneEventLimit, true
	case apeByteO2NError:
		return APEO2NError, true
	case apeByteRateMissingTriggerError:
		return APERateMissingTriggerError, true
	case apeBytePeDataMissing:
		return APEPeDataMissing, true
	case apeByteOotDataMissing:
		return APEOotDataMissing, true
	case apeBytePadding:
		return APEPadding, true
	default:
		return 0, false
	}
}

// Severity mirrors the original instrument's classification of what an
// APE does to the lane it was seen on.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityFatal
)

// Severity returns the lane-status impact of this APE kind.
func (a APE) Severity() Severity {
	switch a {
	case APEPadding:
		return SeverityOK
	case APEStripStart, APEPeDataMissing, APEOotDataMissing:
		return SeverityWarning
	default:
		return SeverityFatal
	}
}

func (a APE) String() string {
	switch a {
	case APEPadding:
		return "APE_PADDING"
	case APEStripStart:
		return "APE_STRIP_START"
	case APEDetectorTimeout:
		return "APE_DET_TIMEOUT"
	case APEOutOfTable:
		return "APE_OOT"
	case APEProtocolError:
		return "APE_PROTOCOL_ERROR"
	case APELaneFifoOverflowError:
		return "APE_LANE_FIFO_OVERFLOW_ERROR"
	case APEFsmError:
		return "APE_FSM_ERROR"
	case APEPendingDetectorEventLimit:
		return "APE_PENDING_DETECTOR_EVENT_LIMIT"
	case APEPendingLaneEventLimit:
		return "APE_PENDING_LANE_EVENT_LIMIT"
	case APEO2NError:
		return "APE_O2N_ERROR"
	case APERateMissingTriggerError:
		return "APE_RATE_MISSING_TRG_ERROR"
	case APEPeDataMissing:
		return "APE_PE_DATA_MISSING"
	case APEOotDataMissing:
		return "APE_OOT_DATA_MISSING"
	default:
		return "APE_UNKNOWN"
	}
}
