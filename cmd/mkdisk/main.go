/*
 * pcemu - Disk image creation tool
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

// mkdisk creates blank disk images for the emulator: floppies of any
// supported capacity, and Xebec-type hard disks as raw sector streams or
// fixed VHDs.
//
//	mkdisk --hdd Type1 --type vhd --out hdd10.vhd
//	mkdisk --floppy 360 --out blank.img
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/tjarmytage/pcemu/internal/floppy"
	"github.com/tjarmytage/pcemu/internal/harddisk"
)

var hddTypes = map[string]harddisk.DriveType{
	"type1":  harddisk.Type1,
	"type2":  harddisk.Type2,
	"type13": harddisk.Type13,
	"type16": harddisk.Type16,
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mkdisk: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	optHDD := getopt.StringLong("hdd", 'd', "", "Hard disk type: Type1, Type2, Type13, Type16")
	optFloppy := getopt.StringLong("floppy", 'f', "", "Floppy capacity in KiB: 160, 180, 320, 360, 720, 1200, 1440, 2880")
	optType := getopt.StringLong("type", 't', "raw", "Hard disk container: raw or vhd")
	optOut := getopt.StringLong("out", 'o', "", "Output file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optOut == "" {
		fail("an output file is required (--out)")
	}
	if (*optHDD == "") == (*optFloppy == "") {
		fail("specify exactly one of --hdd or --floppy")
	}

	var data []byte
	switch {
	case *optHDD != "":
		t, ok := hddTypes[strings.ToLower(*optHDD)]
		if !ok {
			fail("unknown hard disk type %q", *optHDD)
		}
		g, _ := harddisk.GeometryForType(t)
		switch strings.ToLower(*optType) {
		case "vhd":
			data = harddisk.NewBlank(g, harddisk.FileVHD)
		case "raw":
			data = harddisk.NewBlank(g, harddisk.FileRaw)
		default:
			fail("unknown container type %q", *optType)
		}

	case *optFloppy != "":
		kib, err := strconv.Atoi(*optFloppy)
		if err != nil {
			fail("invalid floppy capacity %q", *optFloppy)
		}
		g, ok := floppy.LookupGeometry(kib * 1024)
		if !ok {
			fail("unsupported floppy capacity %d KiB", kib)
		}
		data = floppy.NewBlank(g)
	}

	if err := os.WriteFile(*optOut, data, 0o644); err != nil {
		fail("%v", err)
	}
	fmt.Printf("%s: %d bytes\n", *optOut, len(data))
}
