// Package tabular turns loosely structured source spreadsheets into
// canonical rows. Government-maintained workbooks change layout over
// time, so nothing about the header row position, date column, or
// value column is assumed fixed: each is detected from the content
// with a confidence floor, and detection failures propagate as
// structured errors instead of silently defaulting.
//
// Two extraction shapes are supported: a simple date/value table
// (barge lock counts) and a pivoted wide table whose dates appear as
// column headers (rail carrier metrics), which is melted to long rows
// and pivoted back to one row per (date, entity).
package tabular
