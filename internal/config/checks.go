package config

import (
	"os"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/pelletier/go-toml/v2"
)

// CustomChecks is the optional reference-value file a run can be
// checked against beyond the stateless protocol checks: an expected CDP
// count, expected PhT trigger count, expected RDH version, and (for the
// outer barrel) the expected chip connector ordering and per-lane chip
// count. Every field is optional; the zero value of a field means "not
// checked".
type CustomChecks struct {
	Cdps          uint32   `toml:"cdps"`
	TriggersPht   uint32   `toml:"triggers_pht"`
	RdhVersion    uint8    `toml:"rdh_version"`
	ChipOrdersOb  [][]uint8 `toml:"chip_orders_ob"`
	ChipCountOb   uint8    `toml:"chip_count_ob"`
}

// LoadChecksTOML decodes a custom-checks file at path.
func LoadChecksTOML(path string) (CustomChecks, error) {
	var cc CustomChecks
	data, err := os.ReadFile(path)
	if err != nil {
		return cc, gopastaerr.New("config.LoadChecksTOML", gopastaerr.CodeReadFailure, err.Error())
	}
	if err := toml.Unmarshal(data, &cc); err != nil {
		return cc, gopastaerr.New("config.LoadChecksTOML", gopastaerr.CodeInvalidInput, err.Error())
	}
	return cc, nil
}

// GenerateChecksTOML renders the current observed values (from a
// finished run) as a TOML document suitable as a starting point for a
// reference file, the counterpart to --generate-checks-toml.
func GenerateChecksTOML(cc CustomChecks) ([]byte, error) {
	out, err := toml.Marshal(cc)
	if err != nil {
		return nil, gopastaerr.New("config.GenerateChecksTOML", gopastaerr.CodeInvalidInput, err.Error())
	}
	return out, nil
}
