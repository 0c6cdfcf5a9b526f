// Package reconcile turns resolution outcomes into canonical album records.
//
// A NEW outcome becomes a fresh record built from its index candidate. A
// DUPLICATE hands back the selected local record untouched, for display only.
// NOT_FOUND produces nothing unless the caller supplies a fully manual entry,
// which is then reconciled exactly like a candidate. Absent fields fall back to
// empty strings or the "Unknown ..." placeholders, the artist is cut at the
// first comma, and the creation timestamp is taken when the record is built.
package reconcile
