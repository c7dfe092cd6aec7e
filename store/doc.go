// Package store is the metric store client used by the health probes and the
// replicator.
//
// A Store holds MetricRecords keyed by id. Writes overwrite by id, so copying
// the same record twice leaves one record behind. Scan is paginated: callers
// pass the NextToken of the previous Page until it comes back empty.
//
//	s, err := store.Open(ctx, "redis", "redis://localhost:6379/0", "DevOpsMetrics")
//	if err != nil {
//	    return err
//	}
//	rec := store.NewRecord("deploy-42", "succeeded", 93.5, "us-east-1", time.Now())
//	if err := s.Put(ctx, rec); err != nil {
//	    return err
//	}
//
// Three backends are provided: MemoryStore, RedisStore and SQLStore (SQLite).
package store
