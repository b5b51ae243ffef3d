// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/docchat-tui/internal/config"
)

// HandleConfig shows or edits the configuration file.
//
//	config [show]          print the effective config (token redacted)
//	config get <key>       print one value
//	config set <key> <v>   change one value in the file
//	config path            print the file path
//	config init [--force]  write the defaults
func HandleConfig(e *Env) error {
	p := NewArgParser(e.Args.Rest, "force")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		if e.Args.JSON {
			safe := e.Config.Clone()
			if safe.Admin.Token != "" {
				safe.Admin.Token = "[REDACTED]"
			}
			return e.printJSON("config", safe)
		}
		fmt.Fprintln(e.Out, e.Config.String())
		return nil

	case "get":
		key, err := p.RequirePositional(1, "key", "docchat config get server.base_url")
		if err != nil {
			return err
		}
		if key == "admin.token" {
			return &ValidationError{Field: "key", Value: key, Reason: "is not printable"}
		}
		v, err := e.Config.Get(key)
		if err != nil {
			return &ValidationError{Field: "key", Value: key, Reason: err.Error()}
		}
		if e.Args.JSON {
			return e.printJSON("config get", map[string]any{"key": key, "value": v})
		}
		fmt.Fprintln(e.Out, v)
		return nil

	case "set":
		key, err := p.RequirePositional(1, "key", "docchat config set <key> <value>")
		if err != nil {
			return err
		}
		if len(p.PositionalArgs()) < 3 {
			return ErrMissingArgument("value", "docchat config set <key> <value>")
		}
		return setConfigValue(e, key, p.Positional(2))

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Fprintln(e.Out, path)
		return nil

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return NewCommandError("config", "init", path+" already exists (use --force)", nil)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return NewCommandError("config", "init", path, err)
		}
		e.success("Wrote %s", path)
		return nil

	default:
		return unknownSubcommand("config", sub, "show", "get", "set", "path", "init")
	}
}

// setConfigValue edits the file contents only, so environment overrides are
// never written back to disk.
func setConfigValue(e *Env, key, value string) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return NewCommandError("config", "set", path, err)
		}
	} else if jsonPath, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			if err := config.LoadJSON(cfg, jsonPath); err != nil {
				return NewCommandError("config", "set", jsonPath, err)
			}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", path, err)
	}

	if e.Args.JSON {
		return e.printJSON("config set", map[string]any{"key": key, "value": value, "path": path})
	}
	e.success("%s updated in %s", key, path)
	return nil
}
