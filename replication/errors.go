package replication

import "errors"

var (
	// ErrSourceScan indicates the source store could not be scanned. It ends
	// the run.
	ErrSourceScan = errors.New("replication: source scan failed")

	// ErrRecordWrite indicates one record could not be written to the
	// destination. It is counted, not fatal.
	ErrRecordWrite = errors.New("replication: record write failed")

	// ErrMissingStore indicates an endpoint without a store.
	ErrMissingStore = errors.New("replication: endpoint has no store")

	// ErrSameEndpoint indicates the source and destination are the same store.
	ErrSameEndpoint = errors.New("replication: source and destination are the same store")
)
