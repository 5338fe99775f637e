/*
 * pcemu - Debug console reader
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

package debugger

import (
	"errors"
	"log/slog"

	"github.com/peterh/liner"
)

// ConsoleReader runs the line-edited prompt, sending each entered line to
// the commands channel. The machine core stays single threaded: lines are
// only applied by the frame loop, between frames. Closing done (or typing
// ctrl-C at the prompt) ends the reader.
func ConsoleReader(commands chan<- string, done <-chan struct{}) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(CompleteCmd)

	for {
		command, err := line.Prompt("pcemu> ")
		if err == nil {
			line.AppendHistory(command)
			select {
			case commands <- command:
			case <-done:
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			close(commands)
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}
