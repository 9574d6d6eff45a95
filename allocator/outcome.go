// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package allocator

// MarkFound - settle the outcome with a reporting session's candidate
//
// first reporter wins; a later report is accepted silently but cannot
// change the recorded candidate.  The reporter's block is retired
// either way.  Returns true only for the call that made the
// transition.
func (a *Allocator) MarkFound(id SessionId, candidate string) bool {
	a.Lock()
	defer a.Unlock()

	delete(a.blocks, id)

	if a.found {
		return false
	}
	a.found = true
	a.candidate = candidate
	close(a.done)

	a.log.Infof("session: %d found: %q", id, candidate)
	return true
}

// Outcome - read the settled state
func (a *Allocator) Outcome() (found bool, candidate string) {
	a.Lock()
	defer a.Unlock()

	return a.found, a.candidate
}

// Done - closed exactly once, when the outcome settles
func (a *Allocator) Done() <-chan struct{} {
	return a.done
}

// BroadcastStop - push a stop to every registered session
//
// best effort: a failed push is logged and skipped, it never aborts
// delivery to the remaining sessions.  Safe to invoke any number of
// times; the registry is snapshotted under the mutex and the sends
// happen outside it.
func (a *Allocator) BroadcastStop() {

	a.Lock()
	ids := make([]SessionId, 0, len(a.sessions))
	notifiers := make([]Notifier, 0, len(a.sessions))
	for id, session := range a.sessions {
		ids = append(ids, id)
		notifiers = append(notifiers, session.notifier)
	}
	a.Unlock()

	for i, notifier := range notifiers {
		if err := notifier.PushStop(); nil != err {
			a.log.Warnf("session: %d stop push failed: %s", ids[i], err)
		}
	}
}
