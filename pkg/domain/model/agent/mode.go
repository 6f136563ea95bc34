package agent

import "github.com/m-mizutani/goerr/v2"

// Mode controls how an extension's text field is combined with the current value
type Mode string

const (
	// ModeUnset means no mode was given. Text merges treat it as ModeAppend.
	ModeUnset   Mode = ""
	ModeAppend  Mode = "append"
	ModePrepend Mode = "prepend"
	ModeReplace Mode = "replace"
)

// IsValid checks if the mode is one of the known values, including unset
func (m Mode) IsValid() bool {
	switch m {
	case ModeUnset, ModeAppend, ModePrepend, ModeReplace:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// ValidateMode validates a merge mode
func ValidateMode(mode Mode) error {
	if !mode.IsValid() {
		return goerr.New("invalid merge mode", goerr.V("mode", mode))
	}
	return nil
}
