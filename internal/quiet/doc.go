// Package quiet implements the battery-trend throttle.
//
// An operator puts a node into quiet mode by creating the quiet.txt record.
// While it exists, the node wakes only to measure the battery: it records
// the lowest voltage seen in battery.txt and goes straight back to a long
// sleep without any network activity. When the voltage climbs more than a
// margin above that low-water mark the node concludes it is being charged,
// deletes both records and resumes normal operation in the same cycle.
//
//	[Normal] --quiet.txt present--> [Quiet]
//	[Quiet]  --v > mark+margin----> [Normal]  (both records deleted)
package quiet
