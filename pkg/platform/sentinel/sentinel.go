package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrConflict: a unique constraint rejected the write
//   - ErrNoTransaction: a tx-scoped operation ran outside RunInTx
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrChainBroken: a stored interaction hash does not match its contents
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrNoTransaction = errors.New("no active transaction")
	ErrUnavailable   = errors.New("unavailable")
	ErrChainBroken   = errors.New("interaction chain broken")
)
