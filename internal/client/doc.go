// SPDX-License-Identifier: Apache-2.0

// Package client implements the interactive client application runtime.
//
// It wires the terminal UI flows, the client services, and the background
// token refresh job into a single process lifecycle.
package client
