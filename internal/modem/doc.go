// Package modem defines the southbound radio-channel contract.
//
// The channel is an opaque asynchronous transport to the radio modem: the
// subsystem submits versioned requests and receives exactly one completion
// per accepted request, plus unsolicited indications (signal strength, scan
// results, network time, modem reset). Wire encoding belongs to the channel
// implementation; this package only shapes the structured records that cross
// the boundary, and normalizes raw radio status codes to a small error
// taxonomy.
package modem
