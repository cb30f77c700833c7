// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

/*
Package supervisor runs Poseidon's long-lived loops under a suture v4 tree.

Each loop is wrapped by internal/supervisor/services and added to one of four
layers (see SupervisorTree). suture restarts a service whose Serve returns
anything other than the context error, backing off once the decayed failure
count crosses FailureThreshold. Supervisor events are logged through
sutureslog onto the zerolog-backed slog handler.

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLoggerFor("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddDetectionService(services.NewRunnerService("dark-detector", darkRunner))
	err := tree.Serve(ctx)
*/
package supervisor
