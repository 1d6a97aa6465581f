package primeos

import "github.com/primeos/primeos-vm/internal/primeos/vmerr"

// Error is the fatal error type every VM operation can surface: a
// decode failure, a stack fault, an arithmetic overflow, or a
// malformed BuildChunk frame. It halts the VM and is returned
// unchanged through the controller's snapshot.
type Error = vmerr.Error

// ErrorKind classifies an Error, for callers that want to branch on
// the failure category rather than match message text.
type ErrorKind = vmerr.Kind
