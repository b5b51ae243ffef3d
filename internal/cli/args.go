// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits command arguments into flags and positionals.
//
// Supported forms:
//
//	--flag value    --flag=value    -f value    --bool
//
// Flags named in the bool set never consume the next argument. A flag given
// more than once keeps every value (see Flags). "--" ends flag parsing.
type ArgParser struct {
	flags      map[string][]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw. boolNames lists the flags that take no value.
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	isBool := make(map[string]bool, len(boolNames))
	for _, n := range boolNames {
		isBool[n] = true
	}

	p := &ArgParser{
		flags:     make(map[string][]string),
		boolFlags: make(map[string]bool),
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if before, value, ok := strings.Cut(name, "="); ok {
			if isBool[before] {
				b, err := strconv.ParseBool(value)
				p.boolFlags[before] = err == nil && b
			} else {
				p.flags[before] = append(p.flags[before], value)
			}
			continue
		}

		if isBool[name] {
			p.boolFlags[name] = true
			continue
		}
		if i+1 < len(raw) && (!strings.HasPrefix(raw[i+1], "-") || isNumber(raw[i+1])) {
			p.flags[name] = append(p.flags[name], raw[i+1])
			i++
			continue
		}
		// A value flag at the end of the line is recorded as set but empty.
		p.flags[name] = append(p.flags[name], "")
	}
	return p
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Subcommand is the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Flag returns the last value of the first name that is set.
func (p *ArgParser) Flag(names ...string) string {
	for _, n := range names {
		if vals := p.flags[n]; len(vals) > 0 {
			return vals[len(vals)-1]
		}
	}
	return ""
}

// Flags returns every value given for any of names, in order.
func (p *ArgParser) Flags(names ...string) []string {
	var out []string
	for _, n := range names {
		out = append(out, p.flags[n]...)
	}
	return out
}

// HasFlag reports whether any of names was given as a value flag.
func (p *ArgParser) HasFlag(names ...string) bool {
	for _, n := range names {
		if _, ok := p.flags[n]; ok {
			return true
		}
	}
	return false
}

// FlagInt parses the flag as an integer. def is returned when it is unset.
func (p *ArgParser) FlagInt(def int, names ...string) (int, error) {
	if !p.HasFlag(names...) {
		return def, nil
	}
	v := p.Flag(names...)
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, &ValidationError{Field: "--" + names[0], Value: v, Reason: "must be a whole number"}
	}
	return n, nil
}

// BoolFlag reports whether any of names was set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, n := range names {
		if p.boolFlags[n] {
			return true
		}
	}
	return false
}

// Positional returns the positional argument at i, or "".
func (p *ArgParser) Positional(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return p.positional[i]
}

// PositionalArgs returns every positional argument.
func (p *ArgParser) PositionalArgs() []string {
	return p.positional
}

// RequirePositional returns the positional at i or a usage error naming it.
func (p *ArgParser) RequirePositional(i int, name, usage string) (string, error) {
	if v := p.Positional(i); v != "" {
		return v, nil
	}
	return "", ErrMissingArgument(name, usage)
}

// ErrMissingArgument is the usage error for a missing positional argument.
func ErrMissingArgument(name, usage string) error {
	return &ValidationError{
		Field:   name,
		Reason:  "is required",
		Example: usage,
	}
}

// unknownSubcommand is the usage error for a bad subcommand.
func unknownSubcommand(command, sub string, valid ...string) error {
	return &ValidationError{
		Field:  command + " subcommand",
		Value:  sub,
		Reason: fmt.Sprintf("expected one of: %s", strings.Join(valid, ", ")),
	}
}
