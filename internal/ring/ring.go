/*
 * pcemu - Bounded ring buffer
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

// Package ring implements a bounded FIFO with overwrite-on-full semantics,
// used by the floppy/hard-disk controller command FIFOs and the keyboard
// scancode queue.
package ring

// Buffer is a fixed-capacity byte FIFO. The zero value is not usable; build
// one with New.
type Buffer struct {
	data  []byte
	head  int
	count int
}

// New returns a Buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Len returns the number of items currently stored.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer's capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// IsEmpty reports whether the buffer holds no items.
func (b *Buffer) IsEmpty() bool {
	return b.count == 0
}

// IsFull reports whether the buffer is at capacity.
func (b *Buffer) IsFull() bool {
	return b.count == len(b.data)
}

// Reset empties the buffer without touching its capacity.
func (b *Buffer) Reset() {
	b.head = 0
	b.count = 0
}

// Push appends v. If the buffer is full, the oldest item is dropped and
// head advances, so the buffer always holds the most recently pushed
// min(N,capacity) items.
func (b *Buffer) Push(v byte) {
	tail := (b.head + b.count) % len(b.data)
	b.data[tail] = v
	if b.count < len(b.data) {
		b.count++
	} else {
		b.head = (b.head + 1) % len(b.data)
	}
}

// Pop removes and returns the oldest item. ok is false if the buffer is
// empty.
func (b *Buffer) Pop() (v byte, ok bool) {
	if b.count == 0 {
		return 0, false
	}
	v = b.data[b.head]
	b.head = (b.head + 1) % len(b.data)
	b.count--
	return v, true
}

// Peek returns the oldest item without removing it.
func (b *Buffer) Peek() (v byte, ok bool) {
	if b.count == 0 {
		return 0, false
	}
	return b.data[b.head], true
}

// Discard drops the oldest item without returning it. It is a no-op on an
// empty buffer.
func (b *Buffer) Discard() {
	if b.count == 0 {
		return
	}
	b.head = (b.head + 1) % len(b.data)
	b.count--
}
