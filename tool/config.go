// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

// EnvPrefix is the prefix of environment variables overriding settings.
// SANDBOX_ARCHIVE_DIR for instance sets archive.dir.
const EnvPrefix = "SANDBOX_"

// Config summarizes the settings of the tool. Settings are taken from, in
// increasing priority, the defaults, the config file, the environment and
// the command line flags.
type Config struct {
	Variant string        `koanf:"variant"`
	Log     LogConfig     `koanf:"log"`
	Archive ArchiveConfig `koanf:"archive"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ArchiveConfig struct {
	Dir  string `koanf:"dir"`
	Kind string `koanf:"kind"`
}

func defaultConfig() Config {
	return Config{
		Variant: "memory",
		Log:     LogConfig{Level: "info", Format: "text"},
		Archive: ArchiveConfig{Kind: "ldb"},
	}
}

var errReadBytesNotSupported = errors.New("reading bytes is not supported by map provider")

// flagProvider feeds explicitly set command line flags into koanf.
type flagProvider map[string]any

func (p flagProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (p flagProvider) Read() (map[string]any, error) {
	return p, nil
}

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	variantFlag.Name:     "variant",
	logLevelFlag.Name:    "log.level",
	logFormatFlag.Name:   "log.format",
	archiveDirFlag.Name:  "archive.dir",
	archiveKindFlag.Name: "archive.kind",
}

// loadConfig resolves the settings of the current invocation.
func loadConfig(context *cli.Context) (Config, error) {
	k := koanf.New(".")
	res := defaultConfig()

	if path := context.String(configFlag.Name); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return res, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return res, fmt.Errorf("failed to load environment: %w", err)
	}

	flags := flagProvider{}
	for flag, key := range flagKeys {
		if context.IsSet(flag) {
			flags[key] = context.String(flag)
		}
	}
	if err := k.Load(flags, nil); err != nil {
		return res, fmt.Errorf("failed to load flags: %w", err)
	}

	if err := k.Unmarshal("", &res); err != nil {
		return res, fmt.Errorf("invalid configuration: %w", err)
	}
	return res, nil
}
