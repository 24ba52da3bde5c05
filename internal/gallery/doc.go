// Package gallery ties the catalog client, pagination, grid planning,
// predictive preloading, selection, and the full-size viewer together
// into one mounted gallery instance per car. Instances are independent:
// each owns its ledger, timers, and selection, and discards them on
// Close.
package gallery
