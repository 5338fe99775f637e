/*
 * pcemu - INI configuration file parser
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"unicode"
)

/* Configuration file format:
 *
 * ';' or '//' introduces a comment, rest of line is ignored.
 * <line>   ::= <key> '=' <value>
 * <key>    ::= <letter> *(<letter> | <number> | '_')
 * <value>  ::= <scalar> | <struct>
 * <scalar> ::= <string> | '"' *<char> '"' | ''' *<char> '''
 * <struct> ::= '[' <field> *(',' <field>) ']'
 * <field>  ::= <key> '=' <value>
 *
 * Array-valued keys (disk, rom, hdd) repeat: each occurrence appends one
 * element.
 */

// Value is a parsed right-hand side: either a scalar string or a struct of
// named fields (which may themselves hold structs).
type Value struct {
	Scalar   string
	Fields   []Field
	IsStruct bool
}

// Field is one name/value pair inside a struct value.
type Field struct {
	Name  string
	Value Value
}

// Get returns a struct field by name.
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Current line being parsed.
type iniLine struct {
	line string
	pos  int
}

var iniLineNumber int

// keyHandlers maps each recognized key to its store-into-config routine.
var keyHandlers = map[string]func(*Config, Value) error{
	"dbg_ui": func(c *Config, v Value) error { return storeBool(&c.DebugUI, v) },
	"model": func(c *Config, v Value) error {
		m, err := ParseModel(v.Scalar)
		if err == nil {
			c.Model = m
		}
		return err
	},
	"video_adapter": func(c *Config, v Value) error {
		a, err := ParseVideoAdapter(v.Scalar)
		if err == nil {
			c.VideoAdapter = a
		}
		return err
	},
	"conventional_ram": func(c *Config, v Value) error {
		n, err := ParseNumber(v.Scalar)
		if err != nil {
			return err
		}
		bytes, err := NormalizeRAM(n)
		if err == nil {
			c.ConventionalRAM = bytes
		}
		return err
	},
	"num_floppies": func(c *Config, v Value) error {
		n, err := ParseNumber(v.Scalar)
		if err != nil {
			return err
		}
		if n > 4 {
			return errors.New("config: num_floppies must be 0-4")
		}
		c.FloppyCount = int(n)
		return nil
	},
	"sw1_override": func(c *Config, v Value) error { return storeBool(&c.SW1Provided, v) },
	"sw2_override": func(c *Config, v Value) error { return storeBool(&c.SW2Provided, v) },
	"sw1":          func(c *Config, v Value) error { return storeSwitch(&c.SW1, v) },
	"sw2":          func(c *Config, v Value) error { return storeSwitch(&c.SW2, v) },
	"disk":         storeDisk,
	"rom":          storeROM,
	"hdd":          storeHDD,

	"texture_scale_mode": func(c *Config, v Value) error {
		return storeEnum(&c.Display.TextureScaleMode, v,
			map[string]TextureScale{"Nearest": TextureNearest, "Linear": TextureLinear})
	},
	"display_scale_mode": func(c *Config, v Value) error {
		return storeEnum(&c.Display.DisplayScaleMode, v,
			map[string]DisplayScale{"Fit": ScaleFit, "Stretch": ScaleStretch})
	},
	"display_view_mode": func(c *Config, v Value) error {
		return storeEnum(&c.Display.DisplayViewMode, v,
			map[string]DisplayView{"Cropped": ViewCropped, "Full": ViewFull})
	},
	"correct_aspect_ratio":  func(c *Config, v Value) error { return storeBool(&c.Display.CorrectAspectRatio, v) },
	"emulate_max_scanline":  func(c *Config, v Value) error { return storeBool(&c.Display.EmulateMaxScanline, v) },
	"allow_display_disable": func(c *Config, v Value) error { return storeBool(&c.Display.AllowDisplayDisable, v) },
	"delay_display_disable": func(c *Config, v Value) error { return storeBool(&c.Display.DelayDisplayDisable, v) },
	"delay_display_disable_time": func(c *Config, v Value) error {
		n, err := strconv.ParseUint(v.Scalar, 10, 64)
		if err == nil {
			c.Display.DelayDisplayDisableTime = n
		}
		return err
	},
	"mda_font": func(c *Config, v Value) error { c.Display.MDAFont = v.Scalar; return nil },
	"cga_font": func(c *Config, v Value) error { c.Display.CGAFont = v.Scalar; return nil },
}

func storeBool(dst *bool, v Value) error {
	b, err := parseBool(v.Scalar)
	if err == nil {
		*dst = b
	}
	return err
}

// storeSwitch stores a raw switch byte; unlike the -sw1/-sw2 command-line
// flags, file values are stored as given, not inverted.
func storeSwitch(dst *byte, v Value) error {
	n, err := ParseNumber(v.Scalar)
	if err == nil {
		*dst = byte(n)
	}
	return err
}

func storeEnum[T any](dst *T, v Value, values map[string]T) error {
	for name, val := range values {
		if name == v.Scalar {
			*dst = val
			return nil
		}
	}
	return fmt.Errorf("config: invalid value %q", v.Scalar)
}

func fieldDrive(v Value) (int, error) {
	d, ok := v.Get("drive")
	if !ok {
		return 0, nil
	}
	if len(d.Scalar) == 1 {
		if n, err := DriveNumber(d.Scalar[0]); err == nil {
			return n, nil
		}
	}
	n, err := ParseNumber(d.Scalar)
	return int(n), err
}

func storeDisk(c *Config, v Value) error {
	if !v.IsStruct {
		return errors.New("config: disk must be a struct value")
	}
	disk := Disk{}
	if p, ok := v.Get("path"); ok {
		disk.Path = p.Scalar
	}
	drive, err := fieldDrive(v)
	if err != nil {
		return err
	}
	disk.Drive = drive
	if wp, ok := v.Get("write_protect"); ok {
		if err := storeBool(&disk.WriteProtect, wp); err != nil {
			return err
		}
	}
	c.Disks = append(c.Disks, disk)
	return nil
}

func storeROM(c *Config, v Value) error {
	if !v.IsStruct {
		return errors.New("config: rom must be a struct value")
	}
	rom := ROM{}
	if p, ok := v.Get("path"); ok {
		rom.Path = p.Scalar
	}
	if a, ok := v.Get("address"); ok {
		n, err := ParseNumber(a.Scalar)
		if err != nil {
			return err
		}
		rom.Address = n
	}
	c.ROMs = append(c.ROMs, rom)
	return nil
}

func storeHDD(c *Config, v Value) error {
	if !v.IsStruct {
		return errors.New("config: hdd must be a struct value")
	}
	hdd := HDD{}
	if p, ok := v.Get("path"); ok {
		hdd.Path = p.Scalar
	}
	drive, err := fieldDrive(v)
	if err != nil {
		return err
	}
	hdd.Drive = drive
	if g, ok := v.Get("geometry"); ok {
		if !g.IsStruct {
			return errors.New("config: hdd geometry must be a struct value")
		}
		for _, axis := range []struct {
			name string
			dst  *int
		}{{"c", &hdd.Geometry.Cylinders}, {"h", &hdd.Geometry.Heads}, {"s", &hdd.Geometry.Sectors}} {
			if f, ok := g.Get(axis.name); ok {
				n, err := ParseNumber(f.Scalar)
				if err != nil {
					return err
				}
				*axis.dst = int(n)
			}
		}
	}
	if t, ok := v.Get("type"); ok {
		typ, err := parseHDDType(t.Scalar)
		if err != nil {
			return err
		}
		hdd.Type = typ
	}
	c.HDDs = append(c.HDDs, hdd)
	return nil
}

// LoadFile applies an INI file to cfg. Unknown keys and bad values are
// configuration errors: logged, with parsing continuing on the next line.
func LoadFile(name string, cfg *Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	iniLineNumber = 0
	reader := bufio.NewReader(file)
	for {
		text, err := reader.ReadString('\n')
		iniLineNumber++
		if len(text) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		line := iniLine{line: text}
		if perr := line.parseLine(cfg); perr != nil {
			log.Warn("config file error", "file", name, "line", iniLineNumber, "err", perr)
		}
	}
	return nil
}

// Parse one line from the file.
func (line *iniLine) parseLine(cfg *Config) error {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	key := line.getName()
	if key == "" {
		return fmt.Errorf("expected key at column %d", line.pos+1)
	}

	line.skipSpace()
	if line.isEOL() || line.line[line.pos] != '=' {
		return fmt.Errorf("key %q not followed by '='", key)
	}
	line.pos++

	value, err := line.parseValue()
	if err != nil {
		return err
	}

	line.skipSpace()
	if !line.isEOL() {
		return fmt.Errorf("trailing characters after value for %q", key)
	}

	handler, ok := keyHandlers[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	return handler(cfg, value)
}

// Skip forward over line until a non-whitespace character is found.
func (line *iniLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line or the start of a comment.
func (line *iniLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	if line.line[line.pos] == ';' {
		return true
	}
	if line.line[line.pos] == '/' && line.pos+1 < len(line.line) && line.line[line.pos+1] == '/' {
		return true
	}
	return false
}

// getName collects a key: a letter followed by letters, digits or
// underscores.
func (line *iniLine) getName() string {
	line.skipSpace()
	if line.isEOL() || !unicode.IsLetter(rune(line.line[line.pos])) {
		return ""
	}
	value := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		if !unicode.IsLetter(rune(by)) && !unicode.IsNumber(rune(by)) && by != '_' {
			break
		}
		value += string(by)
		line.pos++
	}
	return value
}

// parseValue reads a scalar or a bracketed struct.
func (line *iniLine) parseValue() (Value, error) {
	line.skipSpace()
	if line.isEOL() {
		return Value{}, errors.New("missing value")
	}
	if line.line[line.pos] == '[' {
		line.pos++
		return line.parseStruct()
	}
	s, err := line.parseScalar()
	return Value{Scalar: s}, err
}

// parseStruct reads "field = value, field = value, ... ]", recursively for
// nested struct fields.
func (line *iniLine) parseStruct() (Value, error) {
	v := Value{IsStruct: true}
	for {
		line.skipSpace()
		if line.isEOL() {
			return v, errors.New("unterminated struct value")
		}
		if line.line[line.pos] == ']' {
			line.pos++
			return v, nil
		}

		name := line.getName()
		if name == "" {
			return v, fmt.Errorf("expected field name at column %d", line.pos+1)
		}
		line.skipSpace()
		if line.isEOL() || line.line[line.pos] != '=' {
			return v, fmt.Errorf("field %q not followed by '='", name)
		}
		line.pos++

		fv, err := line.parseValue()
		if err != nil {
			return v, err
		}
		v.Fields = append(v.Fields, Field{Name: name, Value: fv})

		line.skipSpace()
		if !line.isEOL() && line.line[line.pos] == ',' {
			line.pos++
		}
	}
}

// parseScalar reads a value up to whitespace, comma, bracket or comment;
// single or double quotes protect any of those.
func (line *iniLine) parseScalar() (string, error) {
	line.skipSpace()

	var quote byte
	if by := line.line[line.pos]; by == '"' || by == '\'' {
		quote = by
		line.pos++
	}

	value := ""
	for {
		if line.pos >= len(line.line) {
			if quote != 0 {
				return value, errors.New("unterminated quoted string")
			}
			return value, nil
		}
		by := line.line[line.pos]
		if quote != 0 {
			if by == quote {
				line.pos++
				return value, nil
			}
			if by == '\n' || by == '\r' {
				return value, errors.New("unterminated quoted string")
			}
		} else {
			if unicode.IsSpace(rune(by)) || by == ',' || by == ']' || line.isEOL() {
				return value, nil
			}
		}
		value += string(by)
		line.pos++
	}
}
