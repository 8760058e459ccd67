// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/errors.go
// Summary: Sentinel errors shared across the core packages.

package wm

import "errors"

var (
	// ErrInvalidTarget means a command referenced a node that does not
	// exist or is of the wrong kind for the operation.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNoNeighbor means a directional navigate or move found nothing
	// in the requested direction.
	ErrNoNeighbor = errors.New("no neighbor in direction")

	// ErrResizeRejected means a resize would push a sibling below the
	// minimum ratio; the tree is left untouched.
	ErrResizeRejected = errors.New("resize rejected")

	// ErrMalformedCommand means a command failed structural validation
	// before reaching the tree.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrNotFound means a node id is stale or was never allocated.
	ErrNotFound = errors.New("node not found")

	// ErrEngineStopped is returned for commands submitted after the
	// engine loop has shut down.
	ErrEngineStopped = errors.New("engine stopped")
)
