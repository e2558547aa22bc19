package barscan

import (
	"fmt"
	"strconv"
	"strings"
)

// Config names a decoder or scanner setting.
type Config int

const (
	// CfgEnable turns a symbology on or off.
	CfgEnable Config = 0
	// CfgAddCheck asks for the optional check digit to be verified.
	CfgAddCheck Config = 1
	// CfgEmitCheck keeps the check digit in the symbol data.
	CfgEmitCheck Config = 2
	// CfgASCII enables the full character set.
	CfgASCII Config = 3
	// CfgNum is the number of boolean settings.
	CfgNum Config = 4

	CfgMinLen Config = 0x20
	CfgMaxLen Config = 0x21

	// CfgPosition enables recording of symbol hit points.
	CfgPosition Config = 0x80

	CfgXDensity Config = 0x100
	CfgYDensity Config = 0x101
)

// IsBool reports whether c is an on/off setting.
func (c Config) IsBool() bool {
	return c >= CfgEnable && c < CfgNum
}

func (c Config) String() string {
	for _, n := range configNames {
		if n.cfg == c && !n.negate {
			return n.name
		}
	}
	return "cfg(" + strconv.Itoa(int(c)) + ")"
}

var configNames = []struct {
	name   string
	min    int
	cfg    Config
	negate bool
}{
	{"y-density", 1, CfgYDensity, false},
	{"x-density", 1, CfgXDensity, false},
	{"enable", 2, CfgEnable, false},
	{"disable", 3, CfgEnable, true},
	{"ascii", 3, CfgASCII, false},
	{"add-check", 3, CfgAddCheck, false},
	{"emit-check", 3, CfgEmitCheck, false},
	{"min-length", 3, CfgMinLen, false},
	{"max-length", 3, CfgMaxLen, false},
	{"position", 3, CfgPosition, false},
}

// Setting is one parsed configuration assignment.
type Setting struct {
	Symbology Type
	Config    Config
	Value     int
}

// ParseConfig parses a configuration string of the form
// "[symbology.]setting[=value]".
//
// Symbology and setting names may be abbreviated to any unambiguous
// prefix. An omitted symbology, or "*", applies the setting to every
// symbology. A setting without a value is set to 1, a "no-" prefix
// inverts the value and "disable" is the inverse of "enable".
//
//	ean13.disable
//	*.emit-check=0
//	code128.min-length=4
//	x-density=2
func ParseConfig(s string) (Setting, error) {
	var set Setting
	rest := s
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		sym, ok := ParseType(s[:dot])
		if !ok {
			return set, fmt.Errorf("%w: unknown symbology in %q", ErrInvalidConfig, s)
		}
		set.Symbology = sym
		rest = s[dot+1:]
	}

	name := rest
	value := ""
	hasValue := false
	if eq := strings.IndexByte(rest, '='); eq >= 0 {
		name, value, hasValue = rest[:eq], rest[eq+1:], true
	}

	negate := false
	if len(name) > 3 && strings.HasPrefix(name, "no-") {
		negate = true
		name = name[3:]
	}
	if name == "" {
		return set, fmt.Errorf("%w: missing setting in %q", ErrInvalidConfig, s)
	}

	found := false
	for _, n := range configNames {
		if len(name) >= n.min && strings.HasPrefix(n.name, name) {
			set.Config = n.cfg
			if n.negate {
				negate = !negate
			}
			found = true
			break
		}
	}
	if !found {
		return set, fmt.Errorf("%w: unknown setting in %q", ErrInvalidConfig, s)
	}

	set.Value = 1
	if hasValue {
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return set, fmt.Errorf("%w: bad value in %q: %v", ErrInvalidConfig, s, err)
		}
		set.Value = int(v)
	}
	if negate {
		if set.Value == 0 {
			set.Value = 1
		} else {
			set.Value = 0
		}
	}
	return set, nil
}
