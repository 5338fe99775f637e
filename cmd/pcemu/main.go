/*
 * pcemu - Main process
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tjarmytage/pcemu/internal/config"
	"github.com/tjarmytage/pcemu/internal/debugger"
	"github.com/tjarmytage/pcemu/internal/harddisk"
	"github.com/tjarmytage/pcemu/internal/logger"
	"github.com/tjarmytage/pcemu/internal/machine"
)

func hddType(t config.HDDType) harddisk.DriveType {
	switch t {
	case config.HDDType1:
		return harddisk.Type1
	case config.HDDType2:
		return harddisk.Type2
	case config.HDDType13:
		return harddisk.Type13
	case config.HDDType16:
		return harddisk.Type16
	}
	return harddisk.TypeNone
}

// loadMedia reads every configured ROM and disk image into the machine.
// Missing or malformed files are configuration errors: logged, with the
// machine continuing without them.
func loadMedia(m *machine.Machine, cfg *config.Config, log *slog.Logger) {
	for _, rom := range cfg.ROMs {
		data, err := os.ReadFile(rom.Path)
		if err != nil {
			log.Warn("cannot load ROM", "path", rom.Path, "err", err)
			continue
		}
		m.LoadROM(rom.Address, data)
		log.Info("loaded ROM", "path", rom.Path, "address", rom.Address, "size", len(data))
	}

	for _, d := range cfg.Disks {
		data, err := os.ReadFile(d.Path)
		if err != nil {
			log.Warn("cannot load disk image", "path", d.Path, "err", err)
			continue
		}
		if err := m.InsertFloppy(d.Drive, d.Path, data, d.WriteProtect); err != nil {
			log.Warn("cannot insert disk image", "path", d.Path, "err", err)
			continue
		}
		log.Info("inserted floppy", "path", d.Path, "drive", d.Drive)
	}

	for _, h := range cfg.HDDs {
		if h.Drive < 0 || h.Drive >= harddisk.NumDrives {
			log.Warn("invalid hard disk drive number", "path", h.Path, "drive", h.Drive)
			continue
		}
		if h.Geometry.TotalSectors() > 0 || h.Type != config.HDDNone {
			m.HDC.Drives[h.Drive].SetGeometryOverride(h.Geometry, hddType(h.Type))
		}
		data, err := os.ReadFile(h.Path)
		if err != nil {
			log.Warn("cannot load hard disk image", "path", h.Path, "err", err)
			continue
		}
		if err := m.InsertHardDisk(h.Drive, h.Path, data); err != nil {
			log.Warn("cannot insert hard disk image", "path", h.Path, "err", err)
			continue
		}
		log.Info("inserted hard disk", "path", h.Path, "drive", h.Drive)
	}
}

// saveDirtyMedia writes back any disk image the guest modified.
func saveDirtyMedia(m *machine.Machine, log *slog.Logger) {
	for i := range m.FDC.Drives {
		d := &m.FDC.Drives[i]
		if d.Inserted && d.Dirty {
			if err := os.WriteFile(d.Path, d.Buffer(), 0o644); err != nil {
				log.Warn("cannot save disk image", "path", d.Path, "err", err)
			} else {
				d.Dirty = false
			}
		}
	}
	for i := range m.HDC.Drives {
		d := &m.HDC.Drives[i]
		if d.Inserted && d.Dirty {
			if err := os.WriteFile(d.Path, d.Buffer(), 0o644); err != nil {
				log.Warn("cannot save hard disk image", "path", d.Path, "err", err)
			} else {
				d.Dirty = false
			}
		}
	}
}

func main() {
	args := os.Args[1:]

	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	log := logger.New(nil, programLevel, false)
	slog.SetDefault(log)

	cfg := config.Default()
	if path := config.ConfigFileFromArgs(args); path != "" {
		cfg.ConfigFile = path
	}
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := config.LoadFile(cfg.ConfigFile, cfg, log); err != nil {
			log.Warn("cannot read config file", "path", cfg.ConfigFile, "err", err)
		}
	}
	// command line finalizes overrides
	if exit := config.ParseCLI(args, cfg, log); exit {
		return
	}

	log.Info("pcemu started", "config", cfg.ConfigFile)

	m := machine.New(cfg, log)
	loadMedia(m, cfg, log)

	// The 8086 core is an external collaborator: a frontend build
	// attaches one over the machine's memory and port hooks with
	// machine.SetCPU before resetting. Without a core the frame loop
	// idles and the debug console still allows memory inspection.
	m.Reset()

	commands := make(chan string)
	done := make(chan struct{})
	if cfg.DebugUI {
		m.Halt()
		go debugger.ConsoleReader(commands, done)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / machine.FrameRateHz)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("Got quit signal")
			break loop
		case line, ok := <-commands:
			if !ok {
				break loop
			}
			quit, err := debugger.ProcessCommand(line, m)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if quit {
				break loop
			}
		case <-ticker.C:
			m.RunFrame()
		}
	}
	close(done)

	saveDirtyMedia(m, log)
	log.Info("pcemu stopped")
}
