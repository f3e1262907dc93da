// Package task runs repurposing jobs in the background.
//
// A job id travels through a Queue. The WorkerPool takes deliveries off the
// queue and hands each job to the JobProcessor, which wraps the Orchestrator
// in the whole-job retry policy and tells the pool how to settle the
// delivery. The Runner owns the queue and the pool and recovers jobs left
// behind by a crashed or stuck worker.
package task
