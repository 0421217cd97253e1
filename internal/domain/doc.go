// Package domain defines the core data model for the daily arXiv pipeline:
// raw and processed papers, the per-day batch state, and the frontend data
// index. The JSON field names of these types form the contract with the
// static frontend and must remain stable across releases.
//
// Mutation of processing state goes through the transition methods defined
// here (and through state.Manager, which is the only component that persists
// them); callers must not flip status fields directly.
package domain
