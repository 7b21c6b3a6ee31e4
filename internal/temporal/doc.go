// Package temporal parses and formats the textual date, time-of-day and
// timestamp literals exchanged with the relational side.
//
// Offsets are written as bare "+HH[:MM]" or "-HH[:MM]" suffixes, which makes
// the date separator "-" ambiguous with a negative offset sign. The timestamp
// parser is therefore a character scanner with named states: "-" is a field
// delimiter only while the scanner is inside the date sub-span (year, month),
// and a sign character is an offset start only once the seconds field has been
// entered.
//
// All results are normalized to UTC. Offsets are subtracted from the parsed
// wall-clock value, so "10:15:30+02:00" becomes 08:15:30 UTC.
package temporal
