/*
 * pcemu - Command line parser
 *
 * Copyright (c) 2025, pcemu contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// The command-line grammar is position dependent: -o sets the load offset
// for the bare ROM paths that follow it, each ROM advancing the offset by
// its file size, and -dwp write-protects the next disk loaded. A getopt
// scan (which bundles single-dash multi-character flags like -ds into
// short options) cannot express this surface, so arguments are walked in
// order by hand.

// cliState carries the position-dependent pieces of a scan.
type cliState struct {
	offset       uint32
	drive        int
	writeProtect bool
}

// ConfigFileFromArgs pre-scans the command line for just the config-file
// selection, so the INI file can be applied before the rest of the command
// line finalizes overrides.
func ConfigFileFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" || args[i] == "-config" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// ParseCLI applies the command line to cfg. It returns exit=true when -?
// asked for usage. Invalid values are configuration errors: logged, with
// parsing continuing at the next argument.
func ParseCLI(args []string, cfg *Config, log *slog.Logger) (exit bool) {
	if log == nil {
		log = slog.Default()
	}
	state := cliState{}

	next := func(i *int) (string, bool) {
		*i++
		if *i < len(args) {
			return args[*i], true
		}
		return "", false
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-dbg":
			cfg.DebugUI = true
			continue

		case "-c", "-config":
			// consumed by ConfigFileFromArgs; skip the path argument
			if v, ok := next(&i); ok {
				cfg.ConfigFile = v
			}
			continue

		case "-ds", "-disks":
			v, ok := next(&i)
			if !ok {
				return false
			}
			n, err := ParseNumber(v)
			if err != nil || n > 4 {
				log.Warn("too many disks, expected 0-4", "arg", v)
				continue
			}
			cfg.FloppyCount = int(n)
			continue

		case "-d", "-disk":
			v, ok := next(&i)
			if !ok {
				return false
			}
			path := v
			if len(v) >= 2 && v[1] == ':' {
				if n, err := DriveNumber(v[0]); err == nil {
					state.drive = n
					path = v[2:]
				}
			}
			state.addDisk(cfg, path)
			continue

		case "-dwp", "-disk-write-protect":
			state.writeProtect = true
			continue

		case "-v", "-video":
			v, ok := next(&i)
			if !ok {
				return false
			}
			adapter, err := ParseVideoAdapter(v)
			if err != nil {
				log.Warn("unknown video adapter, expected MDA, CGA, CGA40, CGA80, NONE", "arg", v)
				cfg.VideoAdapter = VideoNone
				continue
			}
			cfg.VideoAdapter = adapter
			continue

		case "-r", "-ram":
			v, ok := next(&i)
			if !ok {
				return false
			}
			n, err := ParseNumber(v)
			if err != nil {
				log.Warn("invalid conventional RAM size", "arg", v)
				continue
			}
			bytes, err := NormalizeRAM(n)
			if err != nil {
				log.Warn("invalid conventional RAM size", "arg", v, "valid", ValidRAMSizes())
				continue
			}
			cfg.ConventionalRAM = bytes
			continue

		case "-sw1", "-sw2":
			v, ok := next(&i)
			if !ok {
				return false
			}
			n, err := ParseNumber(v)
			if err != nil {
				log.Warn("invalid switch value", "flag", arg, "arg", v)
				continue
			}
			// entered as silkscreened on the planar, so inverted for storage
			if arg == "-sw1" {
				cfg.SW1 = ^byte(n)
				cfg.SW1Provided = true
			} else {
				cfg.SW2 = ^byte(n)
				cfg.SW2Provided = true
			}
			continue

		case "-model":
			v, ok := next(&i)
			if !ok {
				return false
			}
			m, err := ParseModel(v)
			if err != nil {
				log.Warn("invalid model", "arg", v)
				continue
			}
			cfg.Model = m
			continue

		case "-o":
			v, ok := next(&i)
			if !ok {
				return false
			}
			n, err := ParseNumber(v)
			if err != nil {
				log.Warn("invalid load offset", "arg", v)
				continue
			}
			state.offset = n
			continue

		case "-?":
			PrintUsage(os.Stdout)
			return true
		}

		// "A:" through "D:" select the drive for the next path argument.
		if len(arg) == 2 && arg[1] == ':' {
			n, err := DriveNumber(arg[0])
			if err != nil {
				log.Warn("invalid drive letter", "arg", arg)
				continue
			}
			state.drive = n
			if v, ok := next(&i); ok {
				state.addDisk(cfg, v)
			}
			continue
		}

		// Anything else is a ROM path loaded at the current offset; the
		// offset advances by the file's size so sequential ROMs
		// concatenate.
		cfg.ROMs = append(cfg.ROMs, ROM{Path: arg, Address: state.offset})
		if fi, err := os.Stat(arg); err == nil {
			state.offset += uint32(fi.Size())
		} else {
			log.Warn("cannot size ROM file, load offset not advanced", "path", arg, "err", err)
		}
	}

	return false
}

func (s *cliState) addDisk(cfg *Config, path string) {
	cfg.Disks = append(cfg.Disks, Disk{Path: path, Drive: s.drive, WriteProtect: s.writeProtect})
	s.writeProtect = false
}

// PrintUsage writes the command-line summary.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "pcemu [-c <config_file>] [-o <offset>] <rom_file> <extra_flags>\n"+
		"-c <config_file>           - Set config file.\n"+
		"-o <offset>                - Load offset of the next ROM.\n"+
		"<rom_file>                 - Load ROM at offset; inc offset by ROM size.\n"+
		"<A-D>:                     - Load next disk into drive A,B,C,D.\n"+
		"-disks <0-4>               - Amount of disk drives. 0-4.\n"+
		"-disk [A-D:]<disk_path>    - Load disk into drive A,B,C,D.\n"+
		"-disk-write-protect        - Write protect the next loaded disk.\n"+
		"-video <video_adapter>     - The video adapter to use: MDA, CGA, CGA40, CGA80, NONE.\n"+
		"-ram <ram>                 - The amount of conventional ram. (16-64 in multiples of 16) or (64-736 in multiples of 32)\n"+
		"-sw1 <sw1>                 - Override sw1 setting.\n"+
		"-sw2 <sw2>                 - Override sw2 setting.\n"+
		"-model <model>             - Motherboard model: 5150_16_64, 5150_64_256, 5160.\n"+
		"-dbg                       - Open the debug console.\n"+
		"# Numbers can be in decimal, hex or binary.\n")
}
