// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It is the thin caller in front of the job
// pipeline: it records repurposing jobs, hands their IDs to the queue, and
// reports job status and generated outputs back to the owner.
package api
