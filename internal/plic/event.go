/*
 * rv64cosim - delta-queue event scheduler
 *
 * Copyright 2026, Richard Cornwell
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

// Package plic implements the interrupt-controller glue (C6): CLINT
// (mtimecmp/MSIP), PLIC (pending/served/claim/complete), and the HTIF
// console/shutdown bridge, all driven by retired-instruction counts through
// a delta-queue scheduler.
package plic

// Callback runs when a scheduled event's remaining delay reaches zero.
type Callback func()

type event struct {
	delay int64
	cb    Callback
	next  *event
}

// Queue is a singly-linked delta queue: each node stores its delay relative
// to the node before it, so advancing time only touches the head until an
// event fires. Grounded on the teacher's time-relative event list.
type Queue struct {
	head *event
}

// Schedule adds cb to fire after delay instructions (or immediately if
// delay is zero).
func (q *Queue) Schedule(delay int64, cb Callback) {
	if delay <= 0 {
		cb()
		return
	}
	ev := &event{delay: delay, cb: cb}

	cur := q.head
	var prev *event
	for cur != nil {
		if ev.delay <= cur.delay {
			cur.delay -= ev.delay
			ev.next = cur
			break
		}
		ev.delay -= cur.delay
		prev = cur
		cur = cur.next
	}
	if prev == nil {
		q.head = ev
	} else {
		prev.next = ev
	}
}

// Advance moves time forward by n instructions, firing every event whose
// delay has elapsed.
func (q *Queue) Advance(n int64) {
	for q.head != nil && n > 0 {
		if q.head.delay > n {
			q.head.delay -= n
			return
		}
		n -= q.head.delay
		due := q.head
		q.head = q.head.next
		due.cb()
	}
}
