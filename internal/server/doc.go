// Package server implements the MCP (Model Context Protocol) server for
// detection log visualization.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests (one per line)
//   - Output: JSON-RPC responses
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - detections_parse: Parse a log into ordered per-image detections
//   - box_rescale: Map one box from model to image coordinates
//   - annotation_layout: List the drawing commands for one image
//   - detections_render: Draw every image in a log and return the pictures
//   - detection_crops: Cut each detection's area out of one image
//
// Every tool that reads a log accepts either the log text ("log") or a
// file path ("log_path").
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A missing or undecodable image inside detections_render is not an error;
// it is reported in the result's skipped list.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(os.Stdin, os.Stdout); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
