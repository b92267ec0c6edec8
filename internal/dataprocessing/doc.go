// Package dataprocessing turns raw health export XML into typed,
// date-aggregated record sets. Malformed individual records are
// dropped; only a structurally unparseable document fails a parse.
package dataprocessing
