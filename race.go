// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package memsock

// RaceEnabled is true when the race detector is active.
// Slots skip the lock-free spin phase of WaitForOrder in this mode and
// Order reads the sequence under the order mutex, so every turn hand-off
// goes through a lock the detector can see.
const RaceEnabled = true
