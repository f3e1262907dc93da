// Package domain contains the core entities of the content repurposer: the
// Job that tracks a blog post through generation, the closed set of
// ContentKinds, and the append-only ContentOutputs produced for each job.
// It is independent of storage, transport, and generation providers.
package domain
