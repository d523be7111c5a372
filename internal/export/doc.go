// Package export turns a completed week manifest into the scheduler CSV that
// downstream posting tools consume.
package export
