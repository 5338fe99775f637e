/*
 * pcemu - Debug command parser
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

// Package debugger implements the interactive debug console: single-step,
// step-over, continue, a physical-address breakpoint, and memory
// inspection, driven by a line-edited prompt.
package debugger

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tjarmytage/pcemu/internal/config"
)

// Machine is the slice of the machine the console drives.
type Machine interface {
	Halt()
	Resume()
	StepInstruction()
	StepOver()
	Halted() bool
	SetBreakpoint(addr uint32)
	ClearBreakpoint()
	Breakpoint() (uint32, bool)
	CPUPC() uint32
	ReadMemByte(addr uint32) byte
}

type cmd struct {
	name    string // command name
	min     int    // minimum match size
	help    string
	process func(*cmdLine, Machine) (bool, error)
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList []cmd

func init() {
	cmdList = []cmd{
		{name: "break", min: 1, help: "break <addr>  - set physical-address breakpoint", process: breakCmd},
		{name: "clear", min: 2, help: "clear         - clear the breakpoint", process: clearCmd},
		{name: "continue", min: 1, help: "continue      - resume execution", process: cont},
		{name: "help", min: 1, help: "help          - show this list", process: help},
		{name: "mem", min: 1, help: "mem <addr> [n] - dump n bytes of memory", process: mem},
		{name: "over", min: 1, help: "over          - step over the current instruction", process: over},
		{name: "quit", min: 1, help: "quit          - exit the emulator", process: quit},
		{name: "show", min: 2, help: "show          - show PC and breakpoint", process: show},
		{name: "step", min: 2, help: "step          - execute one instruction", process: step},
		{name: "stop", min: 3, help: "stop          - halt execution", process: stop},
	}
}

// ProcessCommand executes one console line against the machine, returning
// quit=true when the emulator should exit.
func ProcessCommand(commandLine string, mach Machine) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()
	if command == "" {
		return false, nil
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}
	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].process(&line, mach)
}

// CompleteCmd returns completions for a partial command line, for the
// line editor. Completion matches on any prefix, unlike dispatch, which
// requires the per-command minimum length.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	matches := []string{}
	for _, m := range cmdList {
		if strings.HasPrefix(m.name, name) {
			matches = append(matches, m.name)
		}
	}
	return matches
}

// matchCommand checks a command against a name at least to its minimum
// match length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	for i := range command {
		if match.name[i] != command[i] {
			return false
		}
	}
	return len(command) >= match.min
}

func matchList(command string) []cmd {
	if command == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// skipSpace moves forward until a non-whitespace character.
func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool {
	return line.pos >= len(line.line)
}

// getWord collects the next whitespace-delimited word, lowercased.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	value := ""
	for !line.isEOL() && !unicode.IsSpace(rune(line.line[line.pos])) {
		value += string(line.line[line.pos])
		line.pos++
	}
	return strings.ToLower(value)
}

// getNumber parses the next word with the emulator's number grammar
// (decimal, 0x/x hex, 0b/b binary).
func (line *cmdLine) getNumber() (uint32, error) {
	word := line.getWord()
	if word == "" {
		return 0, errors.New("expected a number")
	}
	return config.ParseNumber(word)
}

func breakCmd(line *cmdLine, mach Machine) (bool, error) {
	addr, err := line.getNumber()
	if err != nil {
		return false, err
	}
	mach.SetBreakpoint(addr)
	fmt.Printf("breakpoint at %05X\n", addr)
	return false, nil
}

func clearCmd(_ *cmdLine, mach Machine) (bool, error) {
	mach.ClearBreakpoint()
	return false, nil
}

func cont(_ *cmdLine, mach Machine) (bool, error) {
	mach.Resume()
	return false, nil
}

func stop(_ *cmdLine, mach Machine) (bool, error) {
	mach.Halt()
	fmt.Printf("stopped at %05X\n", mach.CPUPC())
	return false, nil
}

func step(_ *cmdLine, mach Machine) (bool, error) {
	mach.StepInstruction()
	return false, nil
}

func over(_ *cmdLine, mach Machine) (bool, error) {
	mach.StepOver()
	return false, nil
}

func quit(_ *cmdLine, _ Machine) (bool, error) {
	return true, nil
}

func show(_ *cmdLine, mach Machine) (bool, error) {
	state := "running"
	if mach.Halted() {
		state = "halted"
	}
	fmt.Printf("pc=%05X %s\n", mach.CPUPC(), state)
	if addr, ok := mach.Breakpoint(); ok {
		fmt.Printf("breakpoint at %05X\n", addr)
	}
	return false, nil
}

func help(_ *cmdLine, _ Machine) (bool, error) {
	for _, m := range cmdList {
		fmt.Println(m.help)
	}
	return false, nil
}

// mem dumps memory as a conventional hex/ASCII listing, 16 bytes per row.
func mem(line *cmdLine, mach Machine) (bool, error) {
	addr, err := line.getNumber()
	if err != nil {
		return false, err
	}
	count := uint32(16)
	line.skipSpace()
	if !line.isEOL() {
		count, err = line.getNumber()
		if err != nil {
			return false, err
		}
	}

	fmt.Print(DumpMemory(mach, addr, count))
	return false, nil
}

// DumpMemory formats count bytes starting at addr.
func DumpMemory(mach Machine, addr, count uint32) string {
	var b strings.Builder
	for row := addr &^ 0xF; row < addr+count; row += 16 {
		fmt.Fprintf(&b, "%05X ", row)
		ascii := ""
		for i := uint32(0); i < 16; i++ {
			a := row + i
			if a < addr || a >= addr+count {
				b.WriteString("   ")
				ascii += " "
				continue
			}
			v := mach.ReadMemByte(a)
			fmt.Fprintf(&b, " %02X", v)
			if v >= 0x20 && v < 0x7F {
				ascii += string(v)
			} else {
				ascii += "."
			}
		}
		b.WriteString("  " + ascii + "\n")
	}
	return b.String()
}
