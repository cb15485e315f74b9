// Package ballotledger implements the in-memory election ledger inside the
// election-operations context.
//
// The module owns the hand-rolled structures behind the ledger (circular
// intake queue, expedited priority queue, linear candidate store, chained
// voter hash table, audit stack) and the session orchestration that sequences
// register/cast/undo/results across them. Business rules live in the
// application and domain layers; the persistence mirror, event outbox, and
// transport stay behind ports and adapters.
package ballotledger
